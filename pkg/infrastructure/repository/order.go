package repository

import (
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"storefront/pkg/domain/model"
)

const orderColumns = `id, user_id, status,
	address_full_name, address_phone, address_line1, address_line2, address_city, address_state, address_postal_code,
	shipping_method, payment_kind, payment_method_id, payment_reference,
	subtotal, delivery_charge, gst_amount, handling_charge, discount_amount, total_amount, promo_code, promo_applied,
	version, created_at, updated_at`

type orderRow struct {
	ID                uuid.UUID       `db:"id"`
	UserID            uuid.UUID       `db:"user_id"`
	Status            string          `db:"status"`
	AddressFullName   string          `db:"address_full_name"`
	AddressPhone      string          `db:"address_phone"`
	AddressLine1      string          `db:"address_line1"`
	AddressLine2      string          `db:"address_line2"`
	AddressCity       string          `db:"address_city"`
	AddressState      string          `db:"address_state"`
	AddressPostalCode string          `db:"address_postal_code"`
	ShippingMethod    string          `db:"shipping_method"`
	PaymentKind       string          `db:"payment_kind"`
	PaymentMethodID   uuid.UUID       `db:"payment_method_id"`
	PaymentReference  string          `db:"payment_reference"`
	Subtotal          decimal.Decimal `db:"subtotal"`
	DeliveryCharge    decimal.Decimal `db:"delivery_charge"`
	GSTAmount         decimal.Decimal `db:"gst_amount"`
	HandlingCharge    decimal.Decimal `db:"handling_charge"`
	DiscountAmount    decimal.Decimal `db:"discount_amount"`
	TotalAmount       decimal.Decimal `db:"total_amount"`
	PromoCode         string          `db:"promo_code"`
	PromoApplied      bool            `db:"promo_applied"`
	Version           int             `db:"version"`
	CreatedAt         timestamp       `db:"created_at"`
	UpdatedAt         timestamp       `db:"updated_at"`
}

type orderItemRow struct {
	OrderID   uuid.UUID       `db:"order_id"`
	Position  int             `db:"position"`
	ProductID uuid.UUID       `db:"product_id"`
	Name      string          `db:"name"`
	Quantity  int             `db:"quantity"`
	Price     decimal.Decimal `db:"price"`
}

func newOrderRow(order *model.Order) orderRow {
	return orderRow{
		ID:                order.ID,
		UserID:            order.UserID,
		Status:            string(order.Status),
		AddressFullName:   order.Address.FullName,
		AddressPhone:      order.Address.Phone,
		AddressLine1:      order.Address.Line1,
		AddressLine2:      order.Address.Line2,
		AddressCity:       order.Address.City,
		AddressState:      order.Address.State,
		AddressPostalCode: order.Address.PostalCode,
		ShippingMethod:    string(order.ShippingMethod),
		PaymentKind:       string(order.Payment.Kind),
		PaymentMethodID:   order.Payment.SavedMethodID,
		PaymentReference:  order.Payment.Reference,
		Subtotal:          order.Summary.Subtotal,
		DeliveryCharge:    order.Summary.DeliveryCharge,
		GSTAmount:         order.Summary.GSTAmount,
		HandlingCharge:    order.Summary.HandlingCharge,
		DiscountAmount:    order.Summary.DiscountAmount,
		TotalAmount:       order.Summary.TotalAmount,
		PromoCode:         order.Summary.PromoCode,
		PromoApplied:      order.Summary.PromoApplied,
		Version:           order.Version,
		CreatedAt:         timestamp{order.CreatedAt},
		UpdatedAt:         timestamp{order.UpdatedAt},
	}
}

func (r orderRow) toModel(items []model.OrderItem) model.Order {
	return model.Order{
		ID:     r.ID,
		UserID: r.UserID,
		Items:  items,
		Status: model.OrderStatus(r.Status),
		Address: model.AddressSnapshot{
			FullName:   r.AddressFullName,
			Phone:      r.AddressPhone,
			Line1:      r.AddressLine1,
			Line2:      r.AddressLine2,
			City:       r.AddressCity,
			State:      r.AddressState,
			PostalCode: r.AddressPostalCode,
		},
		ShippingMethod: model.ShippingMethod(r.ShippingMethod),
		Payment: model.PaymentSelection{
			Kind:          model.PaymentKind(r.PaymentKind),
			SavedMethodID: r.PaymentMethodID,
			Reference:     r.PaymentReference,
		},
		Summary: model.PriceSummary{
			Subtotal:       r.Subtotal,
			DeliveryCharge: r.DeliveryCharge,
			GSTAmount:      r.GSTAmount,
			HandlingCharge: r.HandlingCharge,
			DiscountAmount: r.DiscountAmount,
			TotalAmount:    r.TotalAmount,
			PromoCode:      r.PromoCode,
			PromoApplied:   r.PromoApplied,
		},
		Version:   r.Version,
		CreatedAt: r.CreatedAt.Time,
		UpdatedAt: r.UpdatedAt.Time,
	}
}

func NewOrderRepository(db *sqlx.DB) model.OrderRepository {
	return &orderRepository{db: db}
}

type orderRepository struct {
	db *sqlx.DB
}

func (r *orderRepository) NextID() (uuid.UUID, error) {
	return uuid.NewRandom()
}

func (r *orderRepository) Create(order *model.Order) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return errors.Wrap(err, "begin order transaction")
	}
	defer tx.Rollback()

	_, err = tx.NamedExec(`INSERT INTO orders (`+orderColumns+`) VALUES (
		:id, :user_id, :status,
		:address_full_name, :address_phone, :address_line1, :address_line2, :address_city, :address_state, :address_postal_code,
		:shipping_method, :payment_kind, :payment_method_id, :payment_reference,
		:subtotal, :delivery_charge, :gst_amount, :handling_charge, :discount_amount, :total_amount, :promo_code, :promo_applied,
		:version, :created_at, :updated_at)`, newOrderRow(order))
	if err != nil {
		return errors.Wrap(err, "insert order")
	}

	for i, item := range order.Items {
		_, err = tx.NamedExec(`INSERT INTO order_items (order_id, position, product_id, name, quantity, price)
			VALUES (:order_id, :position, :product_id, :name, :quantity, :price)`, orderItemRow{
			OrderID:   order.ID,
			Position:  i,
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
		if err != nil {
			return errors.Wrap(err, "insert order item")
		}
	}
	return errors.Wrap(tx.Commit(), "commit order")
}

func (r *orderRepository) Find(id uuid.UUID) (*model.Order, error) {
	var row orderRow
	err := r.db.Get(&row, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id.String())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrOrderNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "select order")
	}

	items, err := r.items([]uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	order := row.toModel(items[id])
	return &order, nil
}

// ListByUser returns the user's orders newest first.
func (r *orderRepository) ListByUser(userID uuid.UUID) ([]model.Order, error) {
	var rows []orderRow
	err := r.db.Select(&rows, `SELECT `+orderColumns+` FROM orders WHERE user_id = ? ORDER BY created_at DESC, id`, userID.String())
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}

	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	items, err := r.items(ids)
	if err != nil {
		return nil, err
	}

	orders := make([]model.Order, 0, len(rows))
	for _, row := range rows {
		orders = append(orders, row.toModel(items[row.ID]))
	}
	return orders, nil
}

// Update writes the mutable part of an order. The caller has already bumped Version; the
// row is only written if it still holds the previous one.
func (r *orderRepository) Update(order *model.Order) error {
	result, err := r.db.Exec(`UPDATE orders
		SET status = ?, payment_kind = ?, payment_method_id = ?, payment_reference = ?, version = ?, updated_at = ?
		WHERE id = ? AND version = ?`,
		string(order.Status),
		string(order.Payment.Kind),
		order.Payment.SavedMethodID.String(),
		order.Payment.Reference,
		order.Version,
		timestamp{order.UpdatedAt},
		order.ID.String(),
		order.Version-1,
	)
	if err != nil {
		return errors.Wrap(err, "update order")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "update order")
	}
	if affected == 0 {
		if _, err := r.Find(order.ID); err != nil {
			return err
		}
		return model.ErrOptimisticLock
	}
	return nil
}

func (r *orderRepository) items(orderIDs []uuid.UUID) (map[uuid.UUID][]model.OrderItem, error) {
	result := make(map[uuid.UUID][]model.OrderItem, len(orderIDs))
	if len(orderIDs) == 0 {
		return result, nil
	}

	query, args, err := sqlx.In(`SELECT order_id, position, product_id, name, quantity, price
		FROM order_items WHERE order_id IN (?) ORDER BY order_id, position`, uuidStrings(orderIDs))
	if err != nil {
		return nil, errors.Wrap(err, "build order item lookup")
	}

	var rows []orderItemRow
	if err := r.db.Select(&rows, r.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "select order items")
	}
	for _, row := range rows {
		result[row.OrderID] = append(result[row.OrderID], model.OrderItem{
			ProductID: row.ProductID,
			Name:      row.Name,
			Quantity:  row.Quantity,
			Price:     row.Price,
		})
	}
	return result, nil
}
