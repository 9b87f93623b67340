package handlers

import (
	"github.com/polkiloo/paycore/internal/domain/model"
	"github.com/polkiloo/paycore/internal/server/http/dto"
	"github.com/polkiloo/paycore/internal/usecase"
)

func toDraft(data dto.OrderData) usecase.OrderDraft {
	items := make([]usecase.ItemDraft, 0, len(data.Items))
	for _, item := range data.Items {
		items = append(items, usecase.ItemDraft{
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}
	return usecase.OrderDraft{
		Items: items,
		Amounts: model.Amounts{
			Subtotal: data.Subtotal,
			Tax:      data.Tax,
			Shipping: data.ShippingCost,
			Discount: data.Discount,
			Total:    data.Total,
		},
		Currency:     data.Currency,
		Shipping:     toAddress(data.Shipping),
		WalletNumber: data.GCashNumber,
	}
}

func toCustomer(info dto.CustomerInfo) usecase.CustomerInfo {
	return usecase.CustomerInfo{
		FirstName: info.FirstName,
		LastName:  info.LastName,
		Email:     info.Email,
		Phone:     info.Phone,
		Billing:   toAddress(info.Billing),
	}
}

func toAddress(a dto.Address) model.Address {
	return model.Address{
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
	}
}

func fromAddress(a model.Address) dto.Address {
	return dto.Address{
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
	}
}

func toOrderResponse(order *model.Order) dto.OrderResponse {
	items := make([]dto.OrderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, dto.OrderItemResponse{
			ID:        item.ID,
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Name:      item.Name,
			Brand:     item.Brand,
			SKU:       item.SKU,
			Price:     item.Price,
			Quantity:  item.Quantity,
		})
	}
	return dto.OrderResponse{
		ID:               order.ID,
		OrderNumber:      order.Number,
		Status:           string(order.Status),
		PaymentStatus:    string(order.PaymentStatus),
		PaymentMethod:    string(order.PaymentMethod),
		PaymentReference: order.PaymentReference,
		Subtotal:         order.Amounts.Subtotal,
		Tax:              order.Amounts.Tax,
		ShippingCost:     order.Amounts.Shipping,
		Discount:         order.Amounts.Discount,
		Total:            order.Amounts.Total,
		Currency:         order.Currency,
		ShippingAddress:  fromAddress(order.ShippingAddress),
		BillingAddress:   fromAddress(order.BillingAddress),
		Items:            items,
		CreatedAt:        order.CreatedAt,
		UpdatedAt:        order.UpdatedAt,
	}
}
