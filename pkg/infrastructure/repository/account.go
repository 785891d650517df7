package repository

import (
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"storefront/pkg/domain/model"
)

const addressColumns = `id, user_id, label, is_default, full_name, phone, line1, line2, city, state, postal_code, created_at`

type addressRow struct {
	ID         uuid.UUID `db:"id"`
	UserID     uuid.UUID `db:"user_id"`
	Label      string    `db:"label"`
	IsDefault  bool      `db:"is_default"`
	FullName   string    `db:"full_name"`
	Phone      string    `db:"phone"`
	Line1      string    `db:"line1"`
	Line2      string    `db:"line2"`
	City       string    `db:"city"`
	State      string    `db:"state"`
	PostalCode string    `db:"postal_code"`
	CreatedAt  timestamp `db:"created_at"`
}

func newAddressRow(address *model.Address) addressRow {
	return addressRow{
		ID:         address.ID,
		UserID:     address.UserID,
		Label:      address.Label,
		IsDefault:  address.IsDefault,
		FullName:   address.FullName,
		Phone:      address.Phone,
		Line1:      address.Line1,
		Line2:      address.Line2,
		City:       address.City,
		State:      address.State,
		PostalCode: address.PostalCode,
		CreatedAt:  timestamp{address.CreatedAt},
	}
}

func (r addressRow) toModel() model.Address {
	return model.Address{
		ID:        r.ID,
		UserID:    r.UserID,
		Label:     r.Label,
		IsDefault: r.IsDefault,
		AddressSnapshot: model.AddressSnapshot{
			FullName:   r.FullName,
			Phone:      r.Phone,
			Line1:      r.Line1,
			Line2:      r.Line2,
			City:       r.City,
			State:      r.State,
			PostalCode: r.PostalCode,
		},
		CreatedAt: r.CreatedAt.Time,
	}
}

func NewAddressRepository(db *sqlx.DB) model.AddressRepository {
	return &addressRepository{db: db}
}

type addressRepository struct {
	db *sqlx.DB
}

func (r *addressRepository) NextID() (uuid.UUID, error) {
	return uuid.NewRandom()
}

func (r *addressRepository) Create(address *model.Address) error {
	_, err := r.db.NamedExec(`INSERT INTO addresses (`+addressColumns+`)
		VALUES (:id, :user_id, :label, :is_default, :full_name, :phone, :line1, :line2, :city, :state, :postal_code, :created_at)`,
		newAddressRow(address))
	return errors.Wrap(err, "insert address")
}

func (r *addressRepository) Update(address *model.Address) error {
	result, err := r.db.NamedExec(`UPDATE addresses SET label = :label, is_default = :is_default,
		full_name = :full_name, phone = :phone, line1 = :line1, line2 = :line2, city = :city, state = :state,
		postal_code = :postal_code WHERE id = :id`, newAddressRow(address))
	if err != nil {
		return errors.Wrap(err, "update address")
	}
	// mysql reports zero affected rows when nothing changed, so confirm the row exists.
	if err := expectRow(result, model.ErrAddressNotFound); err != nil {
		if _, findErr := r.Find(address.ID); findErr != nil {
			return findErr
		}
	}
	return nil
}

func (r *addressRepository) Find(id uuid.UUID) (*model.Address, error) {
	var row addressRow
	err := r.db.Get(&row, `SELECT `+addressColumns+` FROM addresses WHERE id = ?`, id.String())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrAddressNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "select address")
	}
	address := row.toModel()
	return &address, nil
}

func (r *addressRepository) ListByUser(userID uuid.UUID) ([]model.Address, error) {
	var rows []addressRow
	err := r.db.Select(&rows, `SELECT `+addressColumns+` FROM addresses WHERE user_id = ?
		ORDER BY is_default DESC, created_at, id`, userID.String())
	if err != nil {
		return nil, errors.Wrap(err, "list addresses")
	}

	addresses := make([]model.Address, 0, len(rows))
	for _, row := range rows {
		addresses = append(addresses, row.toModel())
	}
	return addresses, nil
}

func (r *addressRepository) Delete(id uuid.UUID) error {
	result, err := r.db.Exec(`DELETE FROM addresses WHERE id = ?`, id.String())
	if err != nil {
		return errors.Wrap(err, "delete address")
	}
	return expectRow(result, model.ErrAddressNotFound)
}

const paymentMethodColumns = `id, user_id, kind, label, reference, created_at`

type paymentMethodRow struct {
	ID        uuid.UUID `db:"id"`
	UserID    uuid.UUID `db:"user_id"`
	Kind      string    `db:"kind"`
	Label     string    `db:"label"`
	Reference string    `db:"reference"`
	CreatedAt timestamp `db:"created_at"`
}

func (r paymentMethodRow) toModel() model.PaymentMethod {
	return model.PaymentMethod{
		ID:        r.ID,
		UserID:    r.UserID,
		Kind:      model.PaymentKind(r.Kind),
		Label:     r.Label,
		Reference: r.Reference,
		CreatedAt: r.CreatedAt.Time,
	}
}

func NewPaymentMethodRepository(db *sqlx.DB) model.PaymentMethodRepository {
	return &paymentMethodRepository{db: db}
}

type paymentMethodRepository struct {
	db *sqlx.DB
}

func (r *paymentMethodRepository) NextID() (uuid.UUID, error) {
	return uuid.NewRandom()
}

func (r *paymentMethodRepository) Create(method *model.PaymentMethod) error {
	_, err := r.db.NamedExec(`INSERT INTO payment_methods (`+paymentMethodColumns+`)
		VALUES (:id, :user_id, :kind, :label, :reference, :created_at)`, paymentMethodRow{
		ID:        method.ID,
		UserID:    method.UserID,
		Kind:      string(method.Kind),
		Label:     method.Label,
		Reference: method.Reference,
		CreatedAt: timestamp{method.CreatedAt},
	})
	return errors.Wrap(err, "insert payment method")
}

func (r *paymentMethodRepository) Find(id uuid.UUID) (*model.PaymentMethod, error) {
	var row paymentMethodRow
	err := r.db.Get(&row, `SELECT `+paymentMethodColumns+` FROM payment_methods WHERE id = ?`, id.String())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrPaymentMethodNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "select payment method")
	}
	method := row.toModel()
	return &method, nil
}

func (r *paymentMethodRepository) ListByUser(userID uuid.UUID) ([]model.PaymentMethod, error) {
	var rows []paymentMethodRow
	err := r.db.Select(&rows, `SELECT `+paymentMethodColumns+` FROM payment_methods WHERE user_id = ?
		ORDER BY created_at, id`, userID.String())
	if err != nil {
		return nil, errors.Wrap(err, "list payment methods")
	}

	methods := make([]model.PaymentMethod, 0, len(rows))
	for _, row := range rows {
		methods = append(methods, row.toModel())
	}
	return methods, nil
}

func (r *paymentMethodRepository) Delete(id uuid.UUID) error {
	result, err := r.db.Exec(`DELETE FROM payment_methods WHERE id = ?`, id.String())
	if err != nil {
		return errors.Wrap(err, "delete payment method")
	}
	return expectRow(result, model.ErrPaymentMethodNotFound)
}

func expectRow(result sql.Result, notFound error) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "read affected rows")
	}
	if affected == 0 {
		return notFound
	}
	return nil
}
