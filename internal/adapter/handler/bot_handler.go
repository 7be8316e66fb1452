package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"github.com/xlebussssshek/warehouse-bot/internal/adapter/report"
	"github.com/xlebussssshek/warehouse-bot/internal/core/domain"
	"github.com/xlebussssshek/warehouse-bot/internal/core/service"
	"github.com/xlebussssshek/warehouse-bot/internal/port"
)

const helpText = `Welcome!

Existing items:
/add A-001 50 — add quantity
/remove A-001 2 — write off

New items:
/new A-999 Item name — create an item

Lookup:
/stock A-001 — current balance
/rename A-001 New name — rename
/delete A-001 — delete an item

Reports:
/report — stock spreadsheet
/history — audit log spreadsheet`

// BotHandler is the chat front end: it normalizes command text into ledger
// calls and renders the results. Access control happens here, before any
// ledger call; the ledger itself trusts the actor id it is given.
type BotHandler struct {
	bot     *tgbotapi.BotAPI
	ledger  *service.Ledger
	reports *report.Writer
	cache   port.BalanceCache
	allowed map[int64]bool
	logger  *slog.Logger
}

func NewBotHandler(bot *tgbotapi.BotAPI, ledger *service.Ledger, reports *report.Writer,
	cache port.BalanceCache, allowedActors []int64, logger *slog.Logger) *BotHandler {

	allowed := make(map[int64]bool, len(allowedActors))
	for _, id := range allowedActors {
		allowed[id] = true
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BotHandler{
		bot:     bot,
		ledger:  ledger,
		reports: reports,
		cache:   cache,
		allowed: allowed,
		logger:  logger,
	}
}

// Run polls for updates until ctx is cancelled.
func (h *BotHandler) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := h.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			h.bot.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			h.handleUpdate(ctx, update)
		}
	}
}

func (h *BotHandler) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || !msg.IsCommand() || msg.From == nil {
		return
	}

	actorID := msg.From.ID
	command := msg.Command()
	logger := h.logger.With(
		slog.Int64("actor_id", actorID),
		slog.String("command", command),
		slog.String("cmd_id", uuid.NewString()),
	)

	if !h.allowed[actorID] {
		logger.Warn("access denied")
		h.send(msg.Chat.ID, reply{text: "Access denied"})
		return
	}

	// Telegram redelivers updates after a poller restart; mutating commands
	// must not apply twice.
	if isMutating(command) {
		claimed, err := h.cache.ClaimUpdate(ctx, update.UpdateID)
		if err != nil {
			logger.Warn("idempotency check failed", slog.String("error", err.Error()))
		} else if !claimed {
			logger.Info("duplicate update dropped", slog.Int("update_id", update.UpdateID))
			return
		}
	}

	rep := h.dispatch(ctx, actorID, command, msg.CommandArguments())
	logger.Info("command handled", slog.String("result", rep.text))
	h.send(msg.Chat.ID, rep)
}

func isMutating(command string) bool {
	switch command {
	case "new", "add", "remove", "rename", "confirm_delete":
		return true
	}
	return false
}

type reply struct {
	text     string
	filePath string
}

func (h *BotHandler) dispatch(ctx context.Context, actorID int64, command, args string) reply {
	switch command {
	case "start":
		return reply{text: helpText}
	case "stock":
		return h.cmdStock(ctx, args)
	case "new":
		return h.cmdNew(ctx, actorID, args)
	case "add":
		return h.cmdAdd(ctx, actorID, args)
	case "remove":
		return h.cmdRemove(ctx, actorID, args)
	case "rename":
		return h.cmdRename(ctx, actorID, args)
	case "delete":
		return h.cmdDelete(ctx, args)
	case "confirm_delete":
		return h.cmdConfirmDelete(ctx, actorID, args)
	case "report":
		return h.cmdReport(ctx)
	case "history":
		return h.cmdHistory(ctx)
	}
	return reply{text: "Unknown command, see /start"}
}

func (h *BotHandler) cmdStock(ctx context.Context, args string) reply {
	code, err := splitCode(args)
	if err != nil {
		return reply{text: "Format: /stock A-001"}
	}

	sku, err := h.ledger.GetSKU(ctx, code)
	if err != nil {
		return reply{text: renderError(err)}
	}
	if sku == nil {
		return reply{text: fmt.Sprintf("Item %s not found", domain.NormalizeCode(code))}
	}
	return reply{text: fmt.Sprintf("%s - %s\nIn stock: %d", sku.Code, sku.Name, sku.Quantity)}
}

func (h *BotHandler) cmdNew(ctx context.Context, actorID int64, args string) reply {
	code, name, err := splitCodeText(args)
	if err != nil {
		return reply{text: "Format: /new A-001 Item name"}
	}

	sku, err := h.ledger.CreateSKU(ctx, code, name, actorID)
	if err != nil {
		return reply{text: renderError(err)}
	}
	return reply{text: fmt.Sprintf("Created %s - %s", sku.Code, sku.Name)}
}

func (h *BotHandler) cmdAdd(ctx context.Context, actorID int64, args string) reply {
	code, amount, err := splitCodeAmount(args)
	if err != nil {
		return reply{text: "Format: /add A-001 10"}
	}

	sku, err := h.ledger.IncrementQuantity(ctx, code, amount, actorID)
	if err != nil {
		return reply{text: renderError(err)}
	}
	return reply{text: fmt.Sprintf("Added %d\n%s - %s\nIn stock: %d", amount, sku.Code, sku.Name, sku.Quantity)}
}

func (h *BotHandler) cmdRemove(ctx context.Context, actorID int64, args string) reply {
	code, amount, err := splitCodeAmount(args)
	if err != nil {
		return reply{text: "Format: /remove A-001 2"}
	}

	sku, err := h.ledger.DecrementQuantity(ctx, code, amount, actorID)
	if errors.Is(err, domain.ErrInsufficientStock) {
		if current, getErr := h.ledger.GetSKU(ctx, code); getErr == nil && current != nil {
			return reply{text: fmt.Sprintf("Not enough stock: only %d available", current.Quantity)}
		}
		return reply{text: "Not enough stock"}
	}
	if err != nil {
		return reply{text: renderError(err)}
	}
	return reply{text: fmt.Sprintf("Removed %d\n%s - %s\nIn stock: %d", amount, sku.Code, sku.Name, sku.Quantity)}
}

func (h *BotHandler) cmdRename(ctx context.Context, actorID int64, args string) reply {
	code, newName, err := splitCodeText(args)
	if err != nil {
		return reply{text: "Format: /rename A-001 New name"}
	}

	sku, err := h.ledger.RenameSKU(ctx, code, newName, actorID)
	if err != nil {
		return reply{text: renderError(err)}
	}
	return reply{text: fmt.Sprintf("Item %s renamed to %q", sku.Code, sku.Name)}
}

// cmdDelete only prompts; the actual removal happens in cmdConfirmDelete.
func (h *BotHandler) cmdDelete(ctx context.Context, args string) reply {
	code, err := splitCode(args)
	if err != nil {
		return reply{text: "Format: /delete A-001"}
	}

	sku, err := h.ledger.GetSKU(ctx, code)
	if err != nil {
		return reply{text: renderError(err)}
	}
	if sku == nil {
		return reply{text: fmt.Sprintf("Item %s not found", domain.NormalizeCode(code))}
	}
	return reply{text: fmt.Sprintf("Really delete %s?\nSend /confirm_delete %s to confirm", sku.Code, sku.Code)}
}

func (h *BotHandler) cmdConfirmDelete(ctx context.Context, actorID int64, args string) reply {
	code, err := splitCode(args)
	if err != nil {
		return reply{text: "Format: /confirm_delete A-001"}
	}

	name, err := h.ledger.DeleteSKU(ctx, code, actorID)
	if err != nil {
		return reply{text: renderError(err)}
	}
	return reply{text: fmt.Sprintf("Item %s - %s deleted", domain.NormalizeCode(code), name)}
}

func (h *BotHandler) cmdReport(ctx context.Context) reply {
	skus, err := h.ledger.ListAll(ctx)
	if err != nil {
		return reply{text: renderError(err)}
	}

	path, err := h.reports.StockReport(skus)
	if err != nil {
		return reply{text: "Failed to build the report, try again later"}
	}
	return reply{text: "Stock report", filePath: path}
}

func (h *BotHandler) cmdHistory(ctx context.Context) reply {
	records, err := h.ledger.ListHistory(ctx)
	if err != nil {
		return reply{text: renderError(err)}
	}

	path, err := h.reports.HistoryReport(records)
	if err != nil {
		return reply{text: "Failed to build the report, try again later"}
	}
	return reply{text: "History report", filePath: path}
}

// renderError maps the ledger's error taxonomy to user-facing text without
// leaking storage details.
func renderError(err error) string {
	var dup *domain.DuplicateNameError
	switch {
	case errors.As(err, &dup):
		if dup.Existing.Code == "" {
			return fmt.Sprintf("Name %q is already taken", dup.Existing.Name)
		}
		return fmt.Sprintf("Name %q is already taken by %s (in stock: %d)",
			dup.Existing.Name, dup.Existing.Code, dup.Existing.Quantity)
	case errors.Is(err, domain.ErrDuplicateCode):
		return "An item with this code already exists"
	case errors.Is(err, domain.ErrNotFound):
		return "Item not found, check the code or use /new to create it"
	case errors.Is(err, domain.ErrInvalidAmount):
		return "Amount must be a positive number"
	case errors.Is(err, domain.ErrInsufficientStock):
		return "Not enough stock"
	case errors.Is(err, domain.ErrEmptyCode):
		return "Item code must not be empty"
	case errors.Is(err, domain.ErrEmptyName):
		return "Item name must not be empty"
	}
	return "Storage error, try again later"
}

func (h *BotHandler) send(chatID int64, rep reply) {
	if rep.text != "" {
		if _, err := h.bot.Send(tgbotapi.NewMessage(chatID, rep.text)); err != nil {
			h.logger.Error("send message failed", slog.String("error", err.Error()))
		}
	}
	if rep.filePath != "" {
		doc := tgbotapi.NewDocument(chatID, tgbotapi.FilePath(rep.filePath))
		if _, err := h.bot.Send(doc); err != nil {
			h.logger.Error("send document failed", slog.String("error", err.Error()))
		}
	}
}
