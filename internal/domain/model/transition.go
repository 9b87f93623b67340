package model

// GatewayStatus is the raw payment status reported by a provider.
type GatewayStatus string

const (
	GatewayStatusSucceeded             GatewayStatus = "succeeded"
	GatewayStatusRequiresPaymentMethod GatewayStatus = "requires_payment_method"
	GatewayStatusRequiresConfirmation  GatewayStatus = "requires_confirmation"
	GatewayStatusRequiresAction        GatewayStatus = "requires_action"
	GatewayStatusProcessing            GatewayStatus = "processing"
	GatewayStatusCanceled              GatewayStatus = "canceled"
)

// Transition is the order and payment state implied by a gateway status.
type Transition struct {
	OrderStatus   OrderStatus
	PaymentStatus PaymentStatus
}

// TransactionStatus maps the payment outcome onto the attempt lifecycle.
func (t Transition) TransactionStatus() TransactionStatus {
	switch t.PaymentStatus {
	case PaymentStatusSucceeded:
		return TransactionStatusSucceeded
	case PaymentStatusCancelled:
		return TransactionStatusCancelled
	default:
		return TransactionStatusPending
	}
}

var awaitingPayment = Transition{OrderStatus: OrderStatusPending, PaymentStatus: PaymentStatusPending}

var transitions = map[GatewayStatus]Transition{
	GatewayStatusSucceeded:             {OrderStatus: OrderStatusProcessing, PaymentStatus: PaymentStatusSucceeded},
	GatewayStatusRequiresPaymentMethod: awaitingPayment,
	GatewayStatusRequiresConfirmation:  awaitingPayment,
	GatewayStatusRequiresAction:        awaitingPayment,
	GatewayStatusProcessing:            awaitingPayment,
	GatewayStatusCanceled:              {OrderStatus: OrderStatusCancelled, PaymentStatus: PaymentStatusCancelled},
}

// TransitionFor returns the transition for status. Unknown statuses keep the
// order awaiting payment.
func TransitionFor(status GatewayStatus) Transition {
	if t, ok := transitions[status]; ok {
		return t
	}
	return awaitingPayment
}

// Settlement is the write the reconciler applies to a locked transaction and its order.
type Settlement struct {
	TransactionStatus TransactionStatus
	Metadata          PaymentMetadata
	OrderStatus       OrderStatus
	PaymentStatus     PaymentStatus
}

// PlanSettlement decides how a confirmation moves txn and order. A nil
// settlement means nothing changes: the attempt already carries the derived
// status, or it is closed and the provider does not report it paid.
//
// A superseded or cancelled attempt that the provider reports succeeded is
// recorded as paid. An order cancelled for non-payment is reopened by it.
func PlanSettlement(txn *PaymentTransaction, order *Order, t Transition, update PaymentMetadata) (*Settlement, error) {
	if txn.Status.Final() {
		return nil, nil
	}
	target := t.TransactionStatus()
	if target == txn.Status {
		return nil, nil
	}
	if txn.Status.Terminal() && target != TransactionStatusSucceeded {
		return nil, nil
	}
	merged, err := MergeMetadata(txn.Metadata, update)
	if err != nil {
		return nil, err
	}

	s := &Settlement{
		TransactionStatus: target,
		Metadata:          merged,
		OrderStatus:       order.Status,
		PaymentStatus:     t.PaymentStatus,
	}
	switch {
	case order.PaymentStatus == PaymentStatusSucceeded:
		// Another attempt never undoes a recorded payment.
		s.PaymentStatus = order.PaymentStatus
	case order.Status.InPaymentPhase(), order.CancelledUnpaid() && target == TransactionStatusSucceeded:
		s.OrderStatus = t.OrderStatus
	}
	return s, nil
}

var staffTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusCancelled, OrderStatusDisputed},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled, OrderStatusDisputed},
	OrderStatusShipped:    {OrderStatusDelivered, OrderStatusCancelled, OrderStatusDisputed},
	OrderStatusDisputed:   {OrderStatusCancelled},
}

// CanStaffTransition reports whether staff may move an order from one status to another.
func CanStaffTransition(from, to OrderStatus) bool {
	for _, allowed := range staffTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
