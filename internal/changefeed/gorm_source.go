package changefeed

import (
	"time"

	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/model"

	"gorm.io/gorm"
)

// GormSource is a gorm plugin that forwards committed creates and updates of
// products, orders and tables to a Bus.
type GormSource struct {
	bus Bus
}

func NewGormSource(bus Bus) *GormSource { return &GormSource{bus: bus} }

func (s *GormSource) Name() string { return "changefeed" }

// commitStep is gorm's last callback of a write; it commits or rolls back the
// statement's transaction.
const commitStep = "gorm:commit_or_rollback_transaction"

// Initialize runs the emitters after commit, so subscribers never see a write
// that is later rolled back. A rolled back statement keeps tx.Error set.
func (s *GormSource) Initialize(db *gorm.DB) error {
	if err := db.Callback().Create().After(commitStep).
		Register("changefeed:after_create", s.emit(OpInsert)); err != nil {
		return err
	}
	return db.Callback().Update().After(commitStep).
		Register("changefeed:after_update", s.emit(OpUpdate))
}

func (s *GormSource) emit(op Op) func(*gorm.DB) {
	return func(tx *gorm.DB) {
		if tx.Error != nil || tx.RowsAffected == 0 || tx.Statement == nil {
			return
		}
		coll, doc, ok := snapshot(tx.Statement.Dest)
		if !ok {
			return
		}
		s.bus.Publish(Change{Collection: coll, Op: op, Document: doc, At: time.Now().UTC()})
	}
}

// snapshot copies a watched document so later mutation by the caller cannot
// race with subscribers.
func snapshot(dest any) (Collection, any, bool) {
	switch d := dest.(type) {
	case *model.Product:
		c := *d
		return Products, &c, true
	case *model.Order:
		return Orders, d.Clone(), true
	case *model.Table:
		return Tables, d.Clone(), true
	default:
		return "", nil, false
	}
}
