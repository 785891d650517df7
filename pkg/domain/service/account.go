package service

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"storefront/pkg/domain/model"
)

// AccountService keeps a user's address book and saved payment instruments.
type AccountService interface {
	AddAddress(userID uuid.UUID, label string, address model.AddressSnapshot, makeDefault bool) (*model.Address, error)
	ListAddresses(userID uuid.UUID) ([]model.Address, error)
	GetAddress(userID, addressID uuid.UUID) (*model.Address, error)
	SetDefaultAddress(userID, addressID uuid.UUID) error
	DeleteAddress(userID, addressID uuid.UUID) error

	AddPaymentMethod(userID uuid.UUID, kind model.PaymentKind, label, reference string) (*model.PaymentMethod, error)
	ListPaymentMethods(userID uuid.UUID) ([]model.PaymentMethod, error)
	GetPaymentMethod(userID, methodID uuid.UUID) (*model.PaymentMethod, error)
	DeletePaymentMethod(userID, methodID uuid.UUID) error
	ResolvePayment(userID uuid.UUID, payment model.PaymentSelection) (model.PaymentSelection, error)
}

func NewAccountService(addresses model.AddressRepository, methods model.PaymentMethodRepository) AccountService {
	return &accountService{addresses: addresses, methods: methods}
}

type accountService struct {
	addresses model.AddressRepository
	methods   model.PaymentMethodRepository
}

func (s *accountService) AddAddress(userID uuid.UUID, label string, address model.AddressSnapshot, makeDefault bool) (*model.Address, error) {
	if userID == uuid.Nil {
		return nil, ErrUserRequired
	}
	if fields := validateAddress(address); len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	existing, err := s.addresses.ListByUser(userID)
	if err != nil {
		return nil, err
	}

	id, err := s.addresses.NextID()
	if err != nil {
		return nil, err
	}

	created := &model.Address{
		ID:              id,
		UserID:          userID,
		Label:           strings.TrimSpace(label),
		IsDefault:       makeDefault || len(existing) == 0,
		AddressSnapshot: address,
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.addresses.Create(created); err != nil {
		return nil, err
	}
	if created.IsDefault {
		if err := s.clearOtherDefaults(existing, id); err != nil {
			return nil, err
		}
	}
	return created, nil
}

func (s *accountService) ListAddresses(userID uuid.UUID) ([]model.Address, error) {
	if userID == uuid.Nil {
		return nil, ErrUserRequired
	}
	return s.addresses.ListByUser(userID)
}

func (s *accountService) GetAddress(userID, addressID uuid.UUID) (*model.Address, error) {
	address, err := s.addresses.Find(addressID)
	if err != nil {
		return nil, err
	}
	if address.UserID != userID {
		return nil, model.ErrAddressNotFound
	}
	return address, nil
}

func (s *accountService) SetDefaultAddress(userID, addressID uuid.UUID) error {
	address, err := s.GetAddress(userID, addressID)
	if err != nil {
		return err
	}
	existing, err := s.addresses.ListByUser(userID)
	if err != nil {
		return err
	}

	if !address.IsDefault {
		address.IsDefault = true
		if err := s.addresses.Update(address); err != nil {
			return err
		}
	}
	return s.clearOtherDefaults(existing, addressID)
}

func (s *accountService) DeleteAddress(userID, addressID uuid.UUID) error {
	if _, err := s.GetAddress(userID, addressID); err != nil {
		return err
	}
	return s.addresses.Delete(addressID)
}

func (s *accountService) AddPaymentMethod(userID uuid.UUID, kind model.PaymentKind, label, reference string) (*model.PaymentMethod, error) {
	if userID == uuid.Nil {
		return nil, ErrUserRequired
	}
	if fields := validatePayment(model.PaymentSelection{Kind: kind, Reference: reference}); len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	id, err := s.methods.NextID()
	if err != nil {
		return nil, err
	}
	method := &model.PaymentMethod{
		ID:        id,
		UserID:    userID,
		Kind:      kind,
		Label:     strings.TrimSpace(label),
		Reference: reference,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.methods.Create(method); err != nil {
		return nil, err
	}
	return method, nil
}

func (s *accountService) ListPaymentMethods(userID uuid.UUID) ([]model.PaymentMethod, error) {
	if userID == uuid.Nil {
		return nil, ErrUserRequired
	}
	return s.methods.ListByUser(userID)
}

func (s *accountService) GetPaymentMethod(userID, methodID uuid.UUID) (*model.PaymentMethod, error) {
	method, err := s.methods.Find(methodID)
	if err != nil {
		return nil, err
	}
	if method.UserID != userID {
		return nil, model.ErrPaymentMethodNotFound
	}
	return method, nil
}

func (s *accountService) DeletePaymentMethod(userID, methodID uuid.UUID) error {
	if _, err := s.GetPaymentMethod(userID, methodID); err != nil {
		return err
	}
	return s.methods.Delete(methodID)
}

// ResolvePayment replaces the kind and reference of a selection that names a saved method
// with the stored ones. The method must belong to the user.
func (s *accountService) ResolvePayment(userID uuid.UUID, payment model.PaymentSelection) (model.PaymentSelection, error) {
	if payment.SavedMethodID == uuid.Nil {
		return payment, nil
	}
	if userID == uuid.Nil {
		return payment, ErrUserRequired
	}
	method, err := s.GetPaymentMethod(userID, payment.SavedMethodID)
	if err != nil {
		return payment, err
	}
	payment.Kind = method.Kind
	payment.Reference = method.Reference
	return payment, nil
}

func (s *accountService) clearOtherDefaults(addresses []model.Address, keep uuid.UUID) error {
	for i := range addresses {
		address := addresses[i]
		if address.ID == keep || !address.IsDefault {
			continue
		}
		address.IsDefault = false
		if err := s.addresses.Update(&address); err != nil {
			return err
		}
	}
	return nil
}
