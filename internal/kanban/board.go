package kanban

import (
	"context"
	"slices"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/crm/internal/model"
	"github.com/sells-group/crm/internal/store"
)

// ErrNoColumn is returned when a card is placed while the board has no
// columns.
var ErrNoColumn = eris.New("kanban: board has no columns")

// Board manages columns and card placement for one store.
type Board struct {
	store store.Store
	log   *zap.Logger
}

// NewBoard returns a Board over st.
func NewBoard(st store.Store) *Board {
	return &Board{store: st, log: zap.L().With(zap.String("component", "kanban"))}
}

// Load returns the owner's columns in order, each with its cards sorted by
// key.
func (b *Board) Load(ctx context.Context, owner string) ([]model.ColumnWithCards, error) {
	cols, err := b.store.ListColumns(ctx, owner)
	if err != nil {
		return nil, eris.Wrap(err, "kanban: list columns")
	}
	companies, err := b.store.ListBoardCompanies(ctx, owner)
	if err != nil {
		return nil, eris.Wrap(err, "kanban: list cards")
	}

	byColumn := make(map[string][]model.Company, len(cols))
	for _, c := range companies {
		if c.KanbanColumnID != nil {
			byColumn[*c.KanbanColumnID] = append(byColumn[*c.KanbanColumnID], c)
		}
	}

	board := make([]model.ColumnWithCards, 0, len(cols))
	for _, col := range cols {
		cards := byColumn[col.ID]
		sortCards(cards)
		if cards == nil {
			cards = []model.Company{}
		}
		board = append(board, model.ColumnWithCards{KanbanColumn: col, Cards: cards})
	}
	return board, nil
}

// MoveCard places a company at index within columnID. The key is computed
// from the column's other cards; when keys get too close the whole column is
// renumbered.
func (b *Board) MoveCard(ctx context.Context, owner, companyID, columnID string, index int) (float64, error) {
	if _, err := b.store.GetColumn(ctx, owner, columnID); err != nil {
		return 0, eris.Wrap(err, "kanban: move card")
	}
	if _, err := b.store.GetCompany(ctx, owner, companyID); err != nil {
		return 0, eris.Wrap(err, "kanban: move card")
	}

	others, err := b.cards(ctx, owner, columnID, companyID)
	if err != nil {
		return 0, err
	}
	keys := make([]*float64, len(others))
	for i := range others {
		keys[i] = others[i].KanbanPosition
	}
	pos := CalculatePosition(keys, index)

	final := values(keys)
	final = append(final, pos)
	if !NeedsRebalancing(final) {
		if err := b.store.SetCompanyPlacement(ctx, owner, companyID, &columnID, &pos); err != nil {
			return 0, eris.Wrap(err, "kanban: move card")
		}
		return pos, nil
	}

	order := make([]string, 0, len(others)+1)
	for _, c := range others {
		order = append(order, c.ID)
	}
	at := min(max(index, 0), len(order))
	order = slices.Insert(order, at, companyID)

	b.log.Info("kanban: rebalancing column",
		zap.String("column_id", columnID),
		zap.Int("cards", len(order)),
	)
	for i, k := range Rebalance(len(order)) {
		if err := b.store.SetCompanyPlacement(ctx, owner, order[i], &columnID, &k); err != nil {
			return 0, eris.Wrap(err, "kanban: rebalance column")
		}
	}
	return float64(at + 1), nil
}

// RemoveCard takes a company off the board.
func (b *Board) RemoveCard(ctx context.Context, owner, companyID string) error {
	return eris.Wrap(b.store.SetCompanyPlacement(ctx, owner, companyID, nil, nil), "kanban: remove card")
}

// AddCompany appends a company to the end of columnID, or of the first
// column when columnID is empty.
func (b *Board) AddCompany(ctx context.Context, owner, companyID, columnID string) (float64, error) {
	if columnID == "" {
		cols, err := b.store.ListColumns(ctx, owner)
		if err != nil {
			return 0, eris.Wrap(err, "kanban: list columns")
		}
		if len(cols) == 0 {
			return 0, ErrNoColumn
		}
		columnID = cols[0].ID
	} else if _, err := b.store.GetColumn(ctx, owner, columnID); err != nil {
		return 0, eris.Wrap(err, "kanban: add company")
	}

	others, err := b.cards(ctx, owner, columnID, companyID)
	if err != nil {
		return 0, err
	}
	keys := make([]*float64, len(others))
	for i := range others {
		keys[i] = others[i].KanbanPosition
	}
	pos := CalculatePosition(keys, len(keys))
	if err := b.store.SetCompanyPlacement(ctx, owner, companyID, &columnID, &pos); err != nil {
		return 0, eris.Wrap(err, "kanban: add company")
	}
	return pos, nil
}

// ReorderColumns moves columnID to index and renumbers every column 1..n.
func (b *Board) ReorderColumns(ctx context.Context, owner, columnID string, index int) ([]model.KanbanColumn, error) {
	cols, err := b.store.ListColumns(ctx, owner)
	if err != nil {
		return nil, eris.Wrap(err, "kanban: list columns")
	}
	from := slices.IndexFunc(cols, func(c model.KanbanColumn) bool { return c.ID == columnID })
	if from < 0 {
		return nil, eris.Wrapf(store.ErrNotFound, "kanban: column %s", columnID)
	}

	moved := cols[from]
	cols = slices.Delete(cols, from, from+1)
	cols = slices.Insert(cols, min(max(index, 0), len(cols)), moved)

	for i := range cols {
		if cols[i].Position == i+1 {
			continue
		}
		cols[i].Position = i + 1
		if err := b.store.UpdateColumn(ctx, &cols[i]); err != nil {
			return nil, eris.Wrap(err, "kanban: renumber columns")
		}
	}
	return cols, nil
}

// AddColumn appends a column after the current last one.
func (b *Board) AddColumn(ctx context.Context, owner, title, color string) (*model.KanbanColumn, error) {
	col := &model.KanbanColumn{OwnerID: owner, Title: strings.TrimSpace(title), Color: color}
	if err := col.Validate(); err != nil {
		return nil, err
	}
	cols, err := b.store.ListColumns(ctx, owner)
	if err != nil {
		return nil, eris.Wrap(err, "kanban: list columns")
	}
	for _, c := range cols {
		col.Position = max(col.Position, c.Position)
	}
	col.Position++

	if err := b.store.CreateColumn(ctx, col); err != nil {
		return nil, eris.Wrap(err, "kanban: create column")
	}
	return col, nil
}

// ColumnPatch holds the editable column fields. Nil fields are unchanged.
type ColumnPatch struct {
	Title *string `json:"title,omitempty"`
	Color *string `json:"color,omitempty"`
}

// UpdateColumn applies patch to a column.
func (b *Board) UpdateColumn(ctx context.Context, owner, columnID string, patch ColumnPatch) (*model.KanbanColumn, error) {
	col, err := b.store.GetColumn(ctx, owner, columnID)
	if err != nil {
		return nil, eris.Wrap(err, "kanban: update column")
	}
	if patch.Title != nil {
		col.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Color != nil {
		col.Color = *patch.Color
	}
	if err := col.Validate(); err != nil {
		return nil, err
	}
	if err := b.store.UpdateColumn(ctx, col); err != nil {
		return nil, eris.Wrap(err, "kanban: update column")
	}
	return col, nil
}

// DeleteColumn removes a column. Its cards leave the board unless moveTo
// names another column, in which case they are appended there in order.
func (b *Board) DeleteColumn(ctx context.Context, owner, columnID, moveTo string) error {
	if moveTo != "" && moveTo != columnID {
		if _, err := b.store.GetColumn(ctx, owner, moveTo); err != nil {
			return eris.Wrap(err, "kanban: delete column")
		}
		moving, err := b.cards(ctx, owner, columnID, "")
		if err != nil {
			return err
		}
		for _, c := range moving {
			if _, err := b.AddCompany(ctx, owner, c.ID, moveTo); err != nil {
				return err
			}
		}
	}
	return eris.Wrap(b.store.DeleteColumn(ctx, owner, columnID), "kanban: delete column")
}

// cards returns the companies in columnID sorted by key, leaving out skip.
func (b *Board) cards(ctx context.Context, owner, columnID, skip string) ([]model.Company, error) {
	all, err := b.store.ListBoardCompanies(ctx, owner)
	if err != nil {
		return nil, eris.Wrap(err, "kanban: list cards")
	}
	var out []model.Company
	for _, c := range all {
		if c.ID != skip && c.KanbanColumnID != nil && *c.KanbanColumnID == columnID {
			out = append(out, c)
		}
	}
	sortCards(out)
	return out, nil
}

func sortCards(cards []model.Company) {
	slices.SortStableFunc(cards, func(a, b model.Company) int {
		pa, pb := key(a.KanbanPosition), key(b.KanbanPosition)
		switch {
		case pa < pb:
			return -1
		case pa > pb:
			return 1
		}
		return strings.Compare(a.ID, b.ID)
	})
}

func key(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
