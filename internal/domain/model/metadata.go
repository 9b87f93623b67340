package model

import (
	"encoding/json"
	"fmt"
)

// PaymentMetadata is the gateway-specific data stored with a transaction.
// It is closed over CardMetadata and WalletMetadata.
type PaymentMetadata interface {
	Method() PaymentMethod
	// LastStatus is the most recent gateway status recorded in the metadata.
	LastStatus() GatewayStatus
	paymentMetadata()
}

// CardMetadata is kept for card payment intents.
type CardMetadata struct {
	PaymentIntentID  string        `json:"payment_intent_id"`
	CustomerID       string        `json:"customer_id,omitempty"`
	GatewayStatus    GatewayStatus `json:"gateway_status,omitempty"`
	AmountReceived   int64         `json:"amount_received,omitempty"`
	PaymentMethodID  string        `json:"payment_method_id,omitempty"`
	LastErrorCode    string        `json:"last_error_code,omitempty"`
	LastErrorMessage string        `json:"last_error_message,omitempty"`
}

func (CardMetadata) Method() PaymentMethod       { return PaymentMethodCard }
func (m CardMetadata) LastStatus() GatewayStatus { return m.GatewayStatus }
func (CardMetadata) paymentMetadata()            {}

// WalletMetadata is kept for e-wallet payments.
type WalletMetadata struct {
	WalletNumber    string        `json:"wallet_number"`
	ReferenceNumber string        `json:"reference_number"`
	SimulatedStatus GatewayStatus `json:"simulated_status"`
}

func (WalletMetadata) Method() PaymentMethod       { return PaymentMethodWallet }
func (m WalletMetadata) LastStatus() GatewayStatus { return m.SimulatedStatus }
func (WalletMetadata) paymentMetadata()            {}

// MergeMetadata overlays the non-empty fields of update onto current.
// Both values must belong to the same payment method.
func MergeMetadata(current, update PaymentMetadata) (PaymentMetadata, error) {
	if current == nil {
		return update, nil
	}
	if update == nil {
		return current, nil
	}
	if current.Method() != update.Method() {
		return nil, fmt.Errorf("merge %s metadata into %s metadata", update.Method(), current.Method())
	}

	switch cur := current.(type) {
	case CardMetadata:
		upd, ok := update.(CardMetadata)
		if !ok {
			return nil, fmt.Errorf("unsupported metadata %T", update)
		}
		cur.PaymentIntentID = pick(cur.PaymentIntentID, upd.PaymentIntentID)
		cur.CustomerID = pick(cur.CustomerID, upd.CustomerID)
		cur.GatewayStatus = pick(cur.GatewayStatus, upd.GatewayStatus)
		cur.PaymentMethodID = pick(cur.PaymentMethodID, upd.PaymentMethodID)
		cur.LastErrorCode = pick(cur.LastErrorCode, upd.LastErrorCode)
		cur.LastErrorMessage = pick(cur.LastErrorMessage, upd.LastErrorMessage)
		if upd.AmountReceived != 0 {
			cur.AmountReceived = upd.AmountReceived
		}
		return cur, nil
	case WalletMetadata:
		upd, ok := update.(WalletMetadata)
		if !ok {
			return nil, fmt.Errorf("unsupported metadata %T", update)
		}
		cur.WalletNumber = pick(cur.WalletNumber, upd.WalletNumber)
		cur.ReferenceNumber = pick(cur.ReferenceNumber, upd.ReferenceNumber)
		cur.SimulatedStatus = pick(cur.SimulatedStatus, upd.SimulatedStatus)
		return cur, nil
	default:
		return nil, fmt.Errorf("unsupported metadata %T", current)
	}
}

func pick[T ~string](current, update T) T {
	if update != "" {
		return update
	}
	return current
}

type metadataEnvelope struct {
	Method PaymentMethod   `json:"method"`
	Data   json.RawMessage `json:"data"`
}

// EncodeMetadata serializes metadata with its variant tag.
func EncodeMetadata(m PaymentMetadata) ([]byte, error) {
	if m == nil {
		return []byte("null"), nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return json.Marshal(metadataEnvelope{Method: m.Method(), Data: data})
}

// DecodeMetadata restores metadata written by EncodeMetadata.
func DecodeMetadata(raw []byte) (PaymentMetadata, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var env metadataEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode metadata envelope: %w", err)
	}
	switch env.Method {
	case PaymentMethodCard:
		var m CardMetadata
		if err := json.Unmarshal(env.Data, &m); err != nil {
			return nil, fmt.Errorf("decode card metadata: %w", err)
		}
		return m, nil
	case PaymentMethodWallet:
		var m WalletMetadata
		if err := json.Unmarshal(env.Data, &m); err != nil {
			return nil, fmt.Errorf("decode wallet metadata: %w", err)
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unknown metadata method %q", env.Method)
	}
}
