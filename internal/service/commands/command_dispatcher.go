package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mamadbah2/facility-ledger/internal/domain/ledger"
	"github.com/mamadbah2/facility-ledger/internal/domain/models"
	"github.com/mamadbah2/facility-ledger/internal/service/requisition"
)

// ErrInvalidArguments indicates the command payload could not be parsed.
var ErrInvalidArguments = errors.New("invalid command arguments")

// ErrUnsupportedCommand indicates we do not yet support the requested command.
var ErrUnsupportedCommand = errors.New("unsupported command")

const (
	maxStockLines   = 20
	maxHistoryLines = 5
)

// HelpText lists the supported commands.
const HelpText = "Commands:\n" +
	"/stock [name] - current stock, optionally filtered by item or model\n" +
	"/low - items below their minimum stock\n" +
	"/history <category> <item> [| model] - latest movements of one item"

// InventoryReader is the slice of the inventory service the bot reads.
type InventoryReader interface {
	Summaries(ctx context.Context) ([]models.SKUSummary, error)
	History(ctx context.Context, sku models.SKU) ([]models.RunningBalanceRow, error)
}

// RequisitionBuilder produces the current low-stock requisition lines.
type RequisitionBuilder interface {
	Build(ctx context.Context) ([]models.RequisitionLine, error)
}

// Dispatcher executes parsed commands and renders a reply.
type Dispatcher interface {
	HandleCommand(ctx context.Context, cmd models.Command, sender string) (string, error)
}

// Service implements the Dispatcher interface.
type Service struct {
	inventory   InventoryReader
	requisition RequisitionBuilder
	logger      *zap.Logger
}

// NewService constructs a command dispatcher.
func NewService(inventory InventoryReader, requisition RequisitionBuilder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		inventory:   inventory,
		requisition: requisition,
		logger:      logger,
	}
}

// HandleCommand answers one command from the ledger.
func (s *Service) HandleCommand(ctx context.Context, cmd models.Command, sender string) (string, error) {
	s.logger.Debug("dispatching command", zap.String("command", string(cmd.Type)), zap.String("sender", sender), zap.Strings("args", cmd.Args))

	switch cmd.Type {
	case models.CommandStock:
		return s.stockReply(ctx, strings.Join(cmd.Args, " "))
	case models.CommandLow:
		lines, err := s.requisition.Build(ctx)
		if err != nil {
			return "", err
		}
		return requisition.FormatAlert(lines), nil
	case models.CommandHistory:
		sku, err := parseSKU(cmd.Args)
		if err != nil {
			return "", err
		}
		return s.historyReply(ctx, sku)
	case models.CommandHelp:
		return HelpText, nil
	default:
		return "", ErrUnsupportedCommand
	}
}

func (s *Service) stockReply(ctx context.Context, filter string) (string, error) {
	summaries, err := s.inventory.Summaries(ctx)
	if err != nil {
		return "", err
	}

	needle := strings.ToLower(strings.TrimSpace(filter))
	var matched []models.SKUSummary
	for _, sum := range summaries {
		if needle == "" ||
			strings.Contains(strings.ToLower(sum.ItemName), needle) ||
			strings.Contains(strings.ToLower(sum.ModelName), needle) {
			matched = append(matched, sum)
		}
	}

	if len(matched) == 0 {
		if needle == "" {
			return "The ledger is empty.", nil
		}
		return fmt.Sprintf("No item matches %q.", filter), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Stock (%d item(s)):", len(matched))
	for i, sum := range matched {
		if i == maxStockLines {
			fmt.Fprintf(&b, "\n...and %d more", len(matched)-maxStockLines)
			break
		}
		amount := ledger.FormatQty(sum.CurrentStock)
		if sum.Unit != "" {
			amount += " " + sum.Unit
		}
		fmt.Fprintf(&b, "\n- [%s] %s: %s (min %s)", sum.Category, displayName(sum.SKU), amount, ledger.FormatQty(sum.MinStock))
	}
	return b.String(), nil
}

func (s *Service) historyReply(ctx context.Context, sku models.SKU) (string, error) {
	rows, err := s.inventory.History(ctx, sku)
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return fmt.Sprintf("No movements recorded for %s.", displayName(sku)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "History of %s:", displayName(sku))
	for i, row := range rows {
		if i == maxHistoryLines {
			break
		}
		fmt.Fprintf(&b, "\n%s in %s out %s -> %s",
			row.Entry.Date,
			ledger.FormatQty(ledger.ParseQty(row.Entry.InQty)),
			ledger.FormatQty(ledger.ParseQty(row.Entry.OutQty)),
			ledger.FormatQty(row.Running))
	}
	return b.String(), nil
}

// parseSKU reads "<category> <item words> [| <model words>]".
func parseSKU(args []string) (models.SKU, error) {
	if len(args) < 2 {
		return models.SKU{}, ErrInvalidArguments
	}

	category := strings.ToLower(args[0])
	if !models.Category(category).Valid() {
		return models.SKU{}, ErrInvalidArguments
	}

	item, model, _ := strings.Cut(strings.Join(args[1:], " "), "|")
	sku := ledger.NormalizeSKU(models.SKU{Category: category, ItemName: item, ModelName: model})
	if sku.ItemName == "" {
		return models.SKU{}, ErrInvalidArguments
	}
	return sku, nil
}

func displayName(sku models.SKU) string {
	if sku.ModelName == "" {
		return sku.ItemName
	}
	return fmt.Sprintf("%s (%s)", sku.ItemName, sku.ModelName)
}
