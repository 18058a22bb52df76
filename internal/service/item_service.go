package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"billing-tracker/internal/domain"
	"billing-tracker/internal/repository"
)

// ItemInput es el payload de alta o edicion. Los punteros permiten
// distinguir un campo ausente de un valor cero.
type ItemInput struct {
	Name        *string  `json:"item" validate:"required,max=100"`
	Price       *float64 `json:"price" validate:"required,gte=0"`
	Description *string  `json:"description"`
}

// ItemService aplica el filtro por dueño sobre todas las operaciones de items.
// El subject de la sesion recibida es el unico criterio de autorizacion.
type ItemService struct {
	logger   *zap.Logger
	items    repository.ItemRepository
	validate *validator.Validate
	now      func() time.Time
}

func NewItemService(logger *zap.Logger, items repository.ItemRepository) *ItemService {
	if logger == nil {
		logger = zap.NewNop()
	}
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &ItemService{
		logger:   logger,
		items:    items,
		validate: v,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// List devuelve los items del subject en orden de insercion.
func (s *ItemService) List(ctx context.Context, sess domain.Session) ([]domain.Item, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	items, err := s.items.ListByOwner(ctx, sess.Subject)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	if items == nil {
		items = []domain.Item{}
	}
	return items, nil
}

// Create valida y persiste un item nuevo con el subject como dueño.
func (s *ItemService) Create(ctx context.Context, sess domain.Session, input ItemInput) (int64, error) {
	if err := requireSession(sess); err != nil {
		return 0, err
	}
	item, err := s.buildItem(input)
	if err != nil {
		return 0, err
	}
	item.OwnerSubject = sess.Subject
	item.CreatedAt = s.now()
	item.UpdatedAt = item.CreatedAt

	id, err := s.items.Create(ctx, item)
	if err != nil {
		return 0, fmt.Errorf("create item: %w", err)
	}
	s.logger.Debug("item created", zap.Int64("item_id", id), zap.String("session_id", sess.ID))
	return id, nil
}

// Update sobrescribe nombre, precio y descripcion de un item propio.
// Un item ajeno devuelve ErrNotFound, igual que uno inexistente.
func (s *ItemService) Update(ctx context.Context, sess domain.Session, id int64, input ItemInput) error {
	if err := requireSession(sess); err != nil {
		return err
	}
	item, err := s.buildItem(input)
	if err != nil {
		return err
	}
	if id <= 0 {
		return ErrNotFound
	}
	item.ID = id
	item.OwnerSubject = sess.Subject
	item.UpdatedAt = s.now()

	if err := s.items.UpdateOwned(ctx, item); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("update item: %w", err)
	}
	return nil
}

// Delete borra definitivamente un item propio. Repetir el borrado devuelve ErrNotFound.
func (s *ItemService) Delete(ctx context.Context, sess domain.Session, id int64) error {
	if err := requireSession(sess); err != nil {
		return err
	}
	if id <= 0 {
		return ErrNotFound
	}
	if err := s.items.DeleteOwned(ctx, id, sess.Subject); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("delete item: %w", err)
	}
	s.logger.Debug("item deleted", zap.Int64("item_id", id), zap.String("session_id", sess.ID))
	return nil
}

func requireSession(sess domain.Session) error {
	if strings.TrimSpace(sess.Subject) == "" {
		return ErrUnauthenticated
	}
	return nil
}

func (s *ItemService) buildItem(input ItemInput) (domain.Item, error) {
	if err := s.validate.Struct(input); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return domain.Item{}, &ValidationError{
				Field:  fieldErrs[0].Field(),
				Reason: validationReason(fieldErrs[0]),
			}
		}
		return domain.Item{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	name := strings.TrimSpace(*input.Name)
	if name == "" {
		return domain.Item{}, &ValidationError{Field: "item", Reason: "must not be blank"}
	}
	price := *input.Price
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return domain.Item{}, &ValidationError{Field: "price", Reason: "must be a finite number"}
	}
	description := ""
	if input.Description != nil {
		description = *input.Description
	}
	return domain.Item{
		Name:        name,
		Price:       price,
		Description: description,
	}, nil
}

func validationReason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	default:
		return "failed " + fe.Tag() + " validation"
	}
}
