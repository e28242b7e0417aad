package domain

type MovementType string

const (
	MovementIn   MovementType = "in"
	MovementOut  MovementType = "out"
	MovementEdit MovementType = "edit"
)

func (t MovementType) Valid() bool {
	switch t {
	case MovementIn, MovementOut, MovementEdit:
		return true
	}
	return false
}

// InventoryRecord is one ledger entry. Records are never modified once appended.
type InventoryRecord struct {
	ID        string       `json:"id"`
	ProductID string       `json:"productId"`
	Quantity  int          `json:"quantity"`
	Type      MovementType `json:"type"`
	Note      string       `json:"note,omitempty"`
	Timestamp int64        `json:"timestamp"`
}

// ValidateMovement checks a quantity against the rules of its movement type:
// in and out carry a positive magnitude, edit carries the absolute stock level.
func ValidateMovement(t MovementType, quantity int) error {
	if !t.Valid() {
		return ErrInvalidMovementType
	}
	if t == MovementEdit {
		if quantity < 0 {
			return ErrInvalidQuantity
		}
		return nil
	}
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	return nil
}
