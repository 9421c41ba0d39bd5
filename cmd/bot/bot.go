package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"rag-assistant-platform/internal/config"
	"rag-assistant-platform/internal/logger"
	"rag-assistant-platform/models"
)

var languages = []string{
	"Auto", "English", "Русский",
	"Қазақша", "Français", "Deutsch",
	"Español", "中文", "日本語",
}

const (
	cmdSetLanguage = "Set answer language"
	helpText       = "Send me a document (.txt, .md, .pdf, .html, .xlsx) and I will index it.\n" +
		"Then ask questions about its contents in plain text.\n\n" +
		"Commands:\n" +
		"/start - show this message\n" +
		"/language - choose the answer language\n" +
		"/clear - forget all uploaded documents"
)

// bot bridges Telegram chats to the HTTP backend. Each chat gets its
// own tenant so documents never leak between users.
type bot struct {
	api     *tgbotapi.BotAPI
	backend string
	client  *http.Client

	mu        sync.Mutex
	langs     map[int64]string
	selecting map[int64]bool
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg)

	if cfg.TelegramBotToken == "" {
		log.Fatal("TELEGRAM_BOT_TOKEN is required")
	}

	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		log.Fatal("Failed to connect to Telegram:", err)
	}

	b := &bot{
		api:       api,
		backend:   strings.TrimRight(cfg.BackendURL, "/"),
		client:    &http.Client{Timeout: 3 * time.Minute},
		langs:     make(map[int64]string),
		selecting: make(map[int64]bool),
	}

	logger.Info("bot authorized", "username", api.Self.UserName)

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 30

	for update := range api.GetUpdatesChan(updateConfig) {
		if update.Message == nil {
			continue
		}
		go b.handleMessage(update.Message)
	}
}

func (b *bot) handleMessage(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	switch {
	case msg.IsCommand():
		b.handleCommand(chatID, msg.Command())
	case msg.Document != nil:
		b.handleDocument(chatID, msg.Document)
	case msg.Text != "":
		b.handleText(chatID, msg.Text)
	}
}

func (b *bot) handleCommand(chatID int64, command string) {
	switch command {
	case "start", "help":
		b.send(chatID, helpText)
	case "language":
		b.promptLanguage(chatID)
	case "clear":
		b.clearDocuments(chatID)
	default:
		b.send(chatID, "Unknown command. Try /help.")
	}
}

// promptLanguage shows the language keyboard, three options per row.
func (b *bot) promptLanguage(chatID int64) {
	var rows [][]tgbotapi.KeyboardButton
	for i := 0; i < len(languages); i += 3 {
		end := i + 3
		if end > len(languages) {
			end = len(languages)
		}
		var row []tgbotapi.KeyboardButton
		for _, lang := range languages[i:end] {
			row = append(row, tgbotapi.NewKeyboardButton(lang))
		}
		rows = append(rows, row)
	}

	keyboard := tgbotapi.NewReplyKeyboard(rows...)
	keyboard.OneTimeKeyboard = true

	b.mu.Lock()
	b.selecting[chatID] = true
	b.mu.Unlock()

	reply := tgbotapi.NewMessage(chatID, "Choose the answer language:")
	reply.ReplyMarkup = keyboard
	if _, err := b.api.Send(reply); err != nil {
		logger.Error("failed to send keyboard", "chat", chatID, "error", err)
	}
}

func (b *bot) handleText(chatID int64, text string) {
	b.mu.Lock()
	if b.selecting[chatID] {
		delete(b.selecting, chatID)
		for _, lang := range languages {
			if text == lang {
				b.langs[chatID] = lang
				b.mu.Unlock()
				b.send(chatID, fmt.Sprintf("Answer language set to %s.", lang))
				return
			}
		}
		b.mu.Unlock()
		b.send(chatID, "That is not one of the options. Language unchanged.")
		return
	}
	language := b.langs[chatID]
	b.mu.Unlock()

	b.askBackend(chatID, text, language)
}

func (b *bot) askBackend(chatID int64, question, language string) {
	payload, err := json.Marshal(models.QueryRequest{
		Question: question,
		Language: language,
		TenantID: tenantFor(chatID),
	})
	if err != nil {
		b.send(chatID, "Internal error, try again later.")
		return
	}

	resp, err := b.client.Post(b.backend+"/query", "application/json", bytes.NewReader(payload))
	if err != nil {
		logger.Error("backend unreachable", "error", err)
		b.send(chatID, "The service is unavailable right now, try again later.")
		return
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode == http.StatusNotFound {
		b.send(chatID, "No documents indexed yet. Send me a file first.")
		return
	}
	if resp.StatusCode != http.StatusOK {
		logger.Error("query failed", "status", resp.StatusCode, "body", string(body))
		b.send(chatID, "Could not answer that question, try again later.")
		return
	}

	var answer models.QueryResponse
	if err := json.Unmarshal(body, &answer); err != nil {
		b.send(chatID, "Could not parse the answer, try again later.")
		return
	}

	b.sendAnswer(chatID, &answer)
}

// sendAnswer formats the answer with an HTML sources footer.
func (b *bot) sendAnswer(chatID int64, answer *models.QueryResponse) {
	var sb strings.Builder
	sb.WriteString(escapeHTML(answer.Answer))

	if len(answer.Sources) > 0 {
		sb.WriteString("\n\n<b>Sources:</b>\n")
		for _, src := range answer.Sources {
			sb.WriteString(fmt.Sprintf("[%d] <i>%s</i>\n", src.ID, escapeHTML(src.Source)))
		}
	}

	reply := tgbotapi.NewMessage(chatID, sb.String())
	reply.ParseMode = tgbotapi.ModeHTML
	if _, err := b.api.Send(reply); err != nil {
		logger.Error("failed to send answer", "chat", chatID, "error", err)
	}
}

func (b *bot) handleDocument(chatID int64, doc *tgbotapi.Document) {
	b.send(chatID, "Processing your document...")

	fileURL, err := b.api.GetFileDirectURL(doc.FileID)
	if err != nil {
		b.send(chatID, "Could not fetch the file from Telegram.")
		return
	}

	fileResp, err := b.client.Get(fileURL)
	if err != nil {
		b.send(chatID, "Could not download the file.")
		return
	}
	defer fileResp.Body.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", doc.FileName)
	if err != nil {
		b.send(chatID, "Internal error, try again later.")
		return
	}
	if _, err := io.Copy(part, fileResp.Body); err != nil {
		b.send(chatID, "Could not read the file.")
		return
	}
	writer.WriteField("tenant_id", tenantFor(chatID))
	writer.Close()

	resp, err := b.client.Post(b.backend+"/upload", writer.FormDataContentType(), &buf)
	if err != nil {
		logger.Error("backend unreachable", "error", err)
		b.send(chatID, "The service is unavailable right now, try again later.")
		return
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	switch resp.StatusCode {
	case http.StatusOK:
		var result models.UploadResponse
		if err := json.Unmarshal(body, &result); err == nil && result.Chunks > 0 {
			b.send(chatID, fmt.Sprintf("Document indexed: %d chunks. Ask me anything about it.", result.Chunks))
		} else {
			b.send(chatID, "Document indexed. Ask me anything about it.")
		}
	case http.StatusAccepted:
		b.send(chatID, "Large document accepted. It will be searchable in a few minutes.")
	case http.StatusBadRequest:
		b.send(chatID, "I cannot read that file format. Send .txt, .md, .pdf, .html or .xlsx.")
	case http.StatusRequestEntityTooLarge:
		b.send(chatID, "That file is too large.")
	default:
		logger.Error("upload failed", "status", resp.StatusCode, "body", string(body))
		b.send(chatID, "Could not process the document, try again later.")
	}
}

func (b *bot) clearDocuments(chatID int64) {
	req, err := http.NewRequest(http.MethodDelete,
		fmt.Sprintf("%s/documents?tenant_id=%s", b.backend, tenantFor(chatID)), nil)
	if err != nil {
		b.send(chatID, "Internal error, try again later.")
		return
	}

	resp, err := b.client.Do(req)
	if err != nil {
		b.send(chatID, "The service is unavailable right now, try again later.")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b.send(chatID, "Could not clear your documents, try again later.")
		return
	}
	b.send(chatID, "All your documents have been forgotten.")
}

func (b *bot) send(chatID int64, text string) {
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		logger.Error("failed to send message", "chat", chatID, "error", err)
	}
}

func tenantFor(chatID int64) string {
	return fmt.Sprintf("tg-%d", chatID)
}

func escapeHTML(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}
