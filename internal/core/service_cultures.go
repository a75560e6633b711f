package core

import (
	"context"
	"fmt"

	"potager/pkg/domain"
)

// DefaultCultureColor is applied when a culture is saved without a color.
const DefaultCultureColor = "#4CAF50"

func validateCulture(field string, c Culture) error {
	if err := required(field+"name", c.Name); err != nil {
		return err
	}
	if err := required(field+"sow_date", c.SowDate); err != nil {
		return err
	}
	return required(field+"cultivation_type", c.CultivationType)
}

func normalizeCulture(c Culture) Culture {
	if c.Color == "" {
		c.Color = DefaultCultureColor
	}
	return c
}

// ListCultures returns cultures ordered by sow date then name.
func (s *Service) ListCultures(ctx context.Context) ([]Culture, error) {
	var out []Culture
	err := s.read(ctx, "culture.list", func(view TransactionView) error {
		out = view.ListCultures()
		return nil
	})
	return out, err
}

// GetCulture fetches one culture.
func (s *Service) GetCulture(ctx context.Context, id string) (Culture, error) {
	var out Culture
	err := s.read(ctx, "culture.get", func(view TransactionView) error {
		c, ok := view.FindCulture(id)
		if !ok {
			return ErrNotFound{Entity: EntityCulture, ID: id}
		}
		out = c
		return nil
	})
	return out, err
}

// CreateCulture validates and stores a new culture. Any supplied id is
// replaced by a store-generated one.
func (s *Service) CreateCulture(ctx context.Context, culture Culture) (Culture, Result, error) {
	if err := validateCulture("", culture); err != nil {
		return Culture{}, Result{}, err
	}
	culture = normalizeCulture(culture)
	culture.Base = domain.Base{}
	var created Culture
	res, err := s.write(ctx, "culture.create", EntityCulture, domain.ActionCreate, func(tx Transaction) (string, error) {
		var err error
		created, err = tx.CreateCulture(culture)
		return created.ID, err
	})
	return created, res, err
}

// UpdateCulture replaces every mutable field of an existing culture.
func (s *Service) UpdateCulture(ctx context.Context, id string, culture Culture) (Culture, Result, error) {
	if err := validateCulture("", culture); err != nil {
		return Culture{}, Result{}, err
	}
	culture = normalizeCulture(culture)
	var updated Culture
	res, err := s.write(ctx, "culture.update", EntityCulture, domain.ActionUpdate, func(tx Transaction) (string, error) {
		if _, ok := tx.FindCulture(id); !ok {
			return id, ErrNotFound{Entity: EntityCulture, ID: id}
		}
		var err error
		updated, err = tx.UpdateCulture(id, func(c *Culture) error {
			base := c.Base
			*c = culture
			c.Base = base
			return nil
		})
		return id, err
	})
	return updated, res, err
}

// DeleteCulture removes a culture. Nothing else references cultures.
func (s *Service) DeleteCulture(ctx context.Context, id string) (Result, error) {
	return s.write(ctx, "culture.delete", EntityCulture, domain.ActionDelete, func(tx Transaction) (string, error) {
		if _, ok := tx.FindCulture(id); !ok {
			return id, ErrNotFound{Entity: EntityCulture, ID: id}
		}
		return id, tx.DeleteCulture(id)
	})
}

// ImportCultures stores every culture of the batch in one transaction, or
// none when any entry is invalid.
func (s *Service) ImportCultures(ctx context.Context, cultures []Culture) ([]Culture, Result, error) {
	for i, c := range cultures {
		if err := validateCulture(fmt.Sprintf("[%d].", i), c); err != nil {
			return nil, Result{}, err
		}
	}
	created := make([]Culture, 0, len(cultures))
	res, err := s.write(ctx, "culture.import", EntityCulture, domain.ActionCreate, func(tx Transaction) (string, error) {
		for _, c := range cultures {
			c = normalizeCulture(c)
			c.Base = domain.Base{}
			stored, err := tx.CreateCulture(c)
			if err != nil {
				return "", err
			}
			created = append(created, stored)
		}
		return "", nil
	})
	if err != nil {
		return nil, res, err
	}
	return created, res, nil
}
