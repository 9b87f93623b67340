package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmockv3 "github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/paycore/internal/domain/errors"
	"github.com/polkiloo/paycore/internal/domain/model"
)

var transactionColumns = []string{"id", "order_id", "gateway", "reference", "amount", "currency", "status", "type", "metadata", "created_at", "updated_at"}

func transactionRow(status model.TransactionStatus, metadata []byte) *pgxmockv3.Rows {
	now := time.Now()
	return pgxmockv3.NewRows(transactionColumns).AddRow(int64(20), int64(1), model.PaymentMethodCard, "pi_1",
		decimal.RequireFromString("162.00"), "PHP", status, model.TransactionTypePayment, metadata, now, now)
}

var cardMetadataJSON = []byte(`{"method":"card","data":{"payment_intent_id":"pi_1","gateway_status":"requires_payment_method"}}`)

func TestTransactionRepositoryGetByReference(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := &transactionRepository{storage: storage}
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(selectTransactionByRef)).WithArgs("pi_1").
		WillReturnRows(transactionRow(model.TransactionStatusPending, cardMetadataJSON))
	txn, err := repo.GetByReference(ctx, "pi_1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	meta, ok := txn.Metadata.(model.CardMetadata)
	if !ok || meta.PaymentIntentID != "pi_1" || txn.Status != model.TransactionStatusPending {
		t.Fatalf("unexpected transaction: %+v", txn)
	}

	mock.ExpectQuery(regexp.QuoteMeta(selectTransactionByRef)).WithArgs("ghost").WillReturnError(pgx.ErrNoRows)
	if _, err := repo.GetByReference(ctx, "ghost"); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	mock.ExpectQuery(regexp.QuoteMeta(selectTransactionByRef)).WithArgs("pi_1").
		WillReturnRows(transactionRow(model.TransactionStatusPending, []byte(`{"method":"cash","data":{}}`)))
	if _, err := repo.GetByReference(ctx, "pi_1"); err == nil {
		t.Fatal("expected metadata error")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestTransactionRepositorySettle(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := &transactionRepository{storage: storage}
	ctx := context.Background()

	expectLocks := func(status model.TransactionStatus) {
		mock.ExpectQuery(regexp.QuoteMeta(selectTransactionByRefForUpdate)).WithArgs("pi_1").
			WillReturnRows(transactionRow(status, cardMetadataJSON))
		mock.ExpectQuery(regexp.QuoteMeta(selectOrderByIDForUpdate)).WithArgs(int64(1)).
			WillReturnRows(addOrderRow(orderRows(), 1, model.OrderStatusPending, model.PaymentStatusPending, nil))
	}

	t.Run("applies settlement", func(t *testing.T) {
		later := time.Now().Add(time.Minute)
		mock.ExpectBegin()
		expectLocks(model.TransactionStatusPending)
		mock.ExpectQuery("UPDATE payment_transactions SET status").WithArgs("succeeded", pgxmockv3.AnyArg(), int64(20)).
			WillReturnRows(pgxmockv3.NewRows([]string{"updated_at"}).AddRow(later))
		mock.ExpectQuery("UPDATE orders SET status").WithArgs("processing", "succeeded", int64(1)).
			WillReturnRows(pgxmockv3.NewRows([]string{"updated_at"}).AddRow(later))
		mock.ExpectCommit()

		result, err := repo.Settle(ctx, "pi_1", func(txn *model.PaymentTransaction, order *model.Order) (*model.Settlement, error) {
			return model.PlanSettlement(txn, order, model.TransitionFor(model.GatewayStatusSucceeded),
				model.CardMetadata{GatewayStatus: model.GatewayStatusSucceeded, AmountReceived: 16200})
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.Changed || result.Transaction.Status != model.TransactionStatusSucceeded ||
			result.Order.Status != model.OrderStatusProcessing || result.Order.PaymentStatus != model.PaymentStatusSucceeded {
			t.Fatalf("unexpected result: %+v", result)
		}
		meta := result.Transaction.Metadata.(model.CardMetadata)
		if meta.PaymentIntentID != "pi_1" || meta.AmountReceived != 16200 {
			t.Fatalf("metadata not merged: %+v", meta)
		}
		if !result.Order.UpdatedAt.Equal(later) {
			t.Fatal("order timestamp not refreshed")
		}
	})

	t.Run("terminal transaction is left alone", func(t *testing.T) {
		mock.ExpectBegin()
		expectLocks(model.TransactionStatusSucceeded)
		mock.ExpectCommit()

		result, err := repo.Settle(ctx, "pi_1", func(txn *model.PaymentTransaction, order *model.Order) (*model.Settlement, error) {
			return model.PlanSettlement(txn, order, model.TransitionFor(model.GatewayStatusCanceled), nil)
		})
		if err != nil || result.Changed || result.Transaction.Status != model.TransactionStatusSucceeded {
			t.Fatalf("unexpected result: %+v err=%v", result, err)
		}
	})

	t.Run("unknown reference", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(selectTransactionByRefForUpdate)).WithArgs("ghost").WillReturnError(pgx.ErrNoRows)
		mock.ExpectRollback()

		_, err := repo.Settle(ctx, "ghost", func(*model.PaymentTransaction, *model.Order) (*model.Settlement, error) {
			t.Fatal("settle func must not run")
			return nil, nil
		})
		if !errors.Is(err, domainErrors.ErrNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
	})

	t.Run("settle func error rolls back", func(t *testing.T) {
		mock.ExpectBegin()
		expectLocks(model.TransactionStatusPending)
		mock.ExpectRollback()

		boom := errors.New("boom")
		_, err := repo.Settle(ctx, "pi_1", func(*model.PaymentTransaction, *model.Order) (*model.Settlement, error) {
			return nil, boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("expected boom, got %v", err)
		}
	})

	t.Run("order update fails", func(t *testing.T) {
		mock.ExpectBegin()
		expectLocks(model.TransactionStatusPending)
		mock.ExpectQuery("UPDATE payment_transactions SET status").
			WillReturnRows(pgxmockv3.NewRows([]string{"updated_at"}).AddRow(time.Now()))
		mock.ExpectQuery("UPDATE orders SET status").WillReturnError(errors.New("update"))
		mock.ExpectRollback()

		_, err := repo.Settle(ctx, "pi_1", func(txn *model.PaymentTransaction, order *model.Order) (*model.Settlement, error) {
			return model.PlanSettlement(txn, order, model.TransitionFor(model.GatewayStatusCanceled), nil)
		})
		if err == nil {
			t.Fatal("expected error")
		}
	})

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}
