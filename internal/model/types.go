// Package model defines domain types used by the vending machine core.
package model

// Denomination is one of the eight coin/note face values the machine
// tracks, in minor currency units.
type Denomination int64

// The closed denomination set. No other values ever enter the reserve.
const (
	Denom10    Denomination = 10
	Denom50    Denomination = 50
	Denom100   Denomination = 100
	Denom500   Denomination = 500
	Denom1000  Denomination = 1000
	Denom5000  Denomination = 5000
	Denom10000 Denomination = 10000
	Denom50000 Denomination = 50000
)

// Denominations lists the legal denominations in descending order, the
// order the change maker consumes them in.
var Denominations = [...]Denomination{
	Denom50000, Denom10000, Denom5000, Denom1000, Denom500, Denom100, Denom50, Denom10,
}

// IsDenomination reports whether amount exactly matches a legal denomination.
func IsDenomination(amount int64) bool {
	for _, d := range Denominations {
		if amount == int64(d) {
			return true
		}
	}
	return false
}

// Reserve maps each denomination to the count held by the machine.
type Reserve map[Denomination]int64

// Clone returns an independent copy of the reserve.
func (r Reserve) Clone() Reserve {
	c := make(Reserve, len(r))
	for d, n := range r {
		c[d] = n
	}
	return c
}

// Breakdown is a set of denomination counts making up a payout.
type Breakdown map[Denomination]int64

// Total returns the weighted sum of the breakdown.
func (b Breakdown) Total() int64 {
	var sum int64
	for d, n := range b {
		sum += int64(d) * n
	}
	return sum
}

// Product represents one slot in the machine's catalog.
type Product struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price int64  `json:"price"`
	Stock int64  `json:"stock"`
}

// PaymentMethod is the payment mode of the in-progress transaction.
type PaymentMethod string

const (
	PaymentNone PaymentMethod = ""
	PaymentCash PaymentMethod = "cash"
	PaymentCard PaymentMethod = "card"
)

// State enumerates the machine states.
type State string

const (
	StateIdle              State = "idle"
	StateCashInserted      State = "cash_inserted"
	StateCardInserted      State = "card_inserted"
	StateProcessingPayment State = "processing_payment"
	StateDispensing        State = "dispensing"
	StateRefunding         State = "refunding"
	StateChangeShortage    State = "change_shortage"
	StateError             State = "error"
)

// ButtonState is the three-valued purchasability label shown per product.
type ButtonState string

const (
	ButtonDisabled    ButtonState = "disabled"
	ButtonActive      ButtonState = "active"
	ButtonPurchasable ButtonState = "purchasable"
)

// EventType enumerates the events the machine accepts.
type EventType string

const (
	EventInsertCash        EventType = "insert_cash"
	EventInsertCard        EventType = "insert_card"
	EventEjectCard         EventType = "eject_card"
	EventSelectProduct     EventType = "select_product"
	EventPaymentSuccess    EventType = "payment_success"
	EventPaymentFailure    EventType = "payment_failure"
	EventDispenseSuccess   EventType = "dispense_success"
	EventDispenseFailure   EventType = "dispense_failure"
	EventRefund            EventType = "refund"
	EventRefundComplete    EventType = "refund_complete"
	EventCheckChange       EventType = "check_change"
	EventChangeReplenished EventType = "change_replenished"
	EventRestock           EventType = "restock"
)

// Event is one input to the machine. Amount is set for insert_cash and
// change_replenished, ProductID for select_product, Message for the two
// failure events. Sequence and Epoch are stamped by the dispatcher:
// Sequence orders intake, Epoch marks which transition an effect
// completion belongs to (zero for externally injected events).
type Event struct {
	Type      EventType `json:"type"`
	Amount    int64     `json:"amount,omitempty"`
	ProductID string    `json:"product_id,omitempty"`
	Message   string    `json:"message,omitempty"`
	Topup     Breakdown `json:"topup,omitempty"`
	Sequence  uint64    `json:"-"`
	Epoch     uint64    `json:"-"`
}

// Snapshot is the externally observable machine state after an event.
type Snapshot struct {
	State           State         `json:"state"`
	Balance         int64         `json:"balance"`
	PaymentMethod   PaymentMethod `json:"payment_method"`
	SelectedProduct *Product      `json:"selected_product,omitempty"`
	Products        []Product     `json:"products"`
	Reserve         Reserve       `json:"reserve"`
	ChangeAvailable bool          `json:"change_available"`
	ErrorMessage    string        `json:"error_message,omitempty"`
	Epoch           uint64        `json:"epoch"`
}
