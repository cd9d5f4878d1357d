package maintenance

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/angelmondragon/ordering-backend/internal/catalog"
)

type repairFunc func(w catalog.Writer, ctx context.Context) (int64, error)

type repairTask struct {
	name   string
	writer catalog.Writer
	repair repairFunc
}

func (t *repairTask) Name() string { return t.name }

func (t *repairTask) Run(ctx context.Context, tx *gorm.DB) (int64, error) {
	rows, err := t.repair(t.writer.WithTx(tx), ctx)
	if err != nil {
		return 0, fmt.Errorf("repair: %w", err)
	}
	return rows, nil
}

// RequiredGroupMinimumsTask raises min_selections to at least 1 on required groups.
func RequiredGroupMinimumsTask(w catalog.Writer) Task {
	return &repairTask{name: "2024061501_required_group_minimums", writer: w, repair: catalog.Writer.RepairRequiredGroupMinimums}
}

// SingleSelectMaximumsTask pins max_selections to 1 on single-select groups.
func SingleSelectMaximumsTask(w catalog.Writer) Task {
	return &repairTask{name: "2024061502_single_select_maximums", writer: w, repair: catalog.Writer.RepairSingleSelectMaximums}
}

// OptionMaxQuantityDefaultTask backfills option quantity caps below 1.
func OptionMaxQuantityDefaultTask(w catalog.Writer) Task {
	return &repairTask{name: "2024061503_option_max_quantity_default", writer: w, repair: catalog.Writer.RepairOptionMaxQuantities}
}

// DefaultTasks returns the catalog invariant repairs in version order.
func DefaultTasks(w catalog.Writer) []Task {
	return []Task{
		RequiredGroupMinimumsTask(w),
		SingleSelectMaximumsTask(w),
		OptionMaxQuantityDefaultTask(w),
	}
}
