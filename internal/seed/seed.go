// Package seed loads bootstrap accounts and catalog data from YAML.
// Running it twice inserts nothing new: users match on email, products and
// suppliers on name.
package seed

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"lpotracker/internal/auth"
	"lpotracker/internal/model"
	"lpotracker/internal/repository"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

type Account struct {
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

type Product struct {
	Name        string `yaml:"name"`
	Price       string `yaml:"price"`
	Description string `yaml:"description"`
}

type Supplier struct {
	Name         string `yaml:"name"`
	ContactName  string `yaml:"contact_name"`
	ContactEmail string `yaml:"contact_email"`
	ContactPhone string `yaml:"contact_phone"`
	Address      string `yaml:"address"`
}

// Catalog is the seed file layout
type Catalog struct {
	Admin     *Account   `yaml:"admin"`
	Users     []Account  `yaml:"users"`
	Products  []Product  `yaml:"products"`
	Suppliers []Supplier `yaml:"suppliers"`
}

// Result counts the rows a run inserted
type Result struct {
	Users     int
	Products  int
	Suppliers int
}

// Parse decodes a catalog document.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse seed catalog: %w", err)
	}
	return &c, nil
}

// Load reads path, or the built-in catalog when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Parse(defaultCatalog)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed catalog: %w", err)
	}
	return Parse(data)
}

// Seeder writes a Catalog through the repositories
type Seeder struct {
	Users     repository.UserRepository
	Products  repository.ProductRepository
	Suppliers repository.SupplierRepository
	Logger    *slog.Logger
}

func (s *Seeder) Run(ctx context.Context, c *Catalog) (Result, error) {
	var res Result

	if c.Admin != nil {
		created, err := s.ensureUser(ctx, *c.Admin, model.RoleAdmin)
		if err != nil {
			return res, err
		}
		if created {
			res.Users++
		}
	}
	for _, u := range c.Users {
		created, err := s.ensureUser(ctx, u, model.RoleUser)
		if err != nil {
			return res, err
		}
		if created {
			res.Users++
		}
	}

	for _, p := range c.Products {
		created, err := s.ensureProduct(ctx, p)
		if err != nil {
			return res, err
		}
		if created {
			res.Products++
		}
	}

	for _, sup := range c.Suppliers {
		created, err := s.ensureSupplier(ctx, sup)
		if err != nil {
			return res, err
		}
		if created {
			res.Suppliers++
		}
	}

	s.Logger.Info("seed complete", "users", res.Users, "products", res.Products, "suppliers", res.Suppliers)
	return res, nil
}

func (s *Seeder) ensureUser(ctx context.Context, a Account, role string) (bool, error) {
	email := strings.ToLower(strings.TrimSpace(a.Email))
	if _, err := s.Users.GetByEmail(ctx, email); err == nil {
		return false, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return false, fmt.Errorf("look up user %s: %w", email, err)
	}

	if len(a.Password) < auth.MinPasswordLength {
		return false, fmt.Errorf("seed user %s: password must be at least %d characters", email, auth.MinPasswordLength)
	}
	hash, err := auth.HashPassword(a.Password)
	if err != nil {
		return false, err
	}
	if err := s.Users.Create(ctx, &model.User{Name: a.Name, Email: email, Password: hash, Role: role}); err != nil {
		return false, fmt.Errorf("create user %s: %w", email, err)
	}
	s.Logger.Debug("seeded user", "email", email, "role", role)
	return true, nil
}

func (s *Seeder) ensureProduct(ctx context.Context, p Product) (bool, error) {
	if _, err := s.Products.FindByName(ctx, p.Name); err == nil {
		return false, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return false, fmt.Errorf("look up product %q: %w", p.Name, err)
	}

	price, err := decimal.NewFromString(p.Price)
	if err != nil {
		return false, fmt.Errorf("product %q: invalid price %q: %w", p.Name, p.Price, err)
	}
	if price.IsNegative() {
		return false, fmt.Errorf("product %q: price cannot be negative", p.Name)
	}
	product := &model.Product{Name: p.Name, Price: price.Round(2), Description: p.Description}
	if err := s.Products.Create(ctx, product); err != nil {
		return false, fmt.Errorf("create product %q: %w", p.Name, err)
	}
	return true, nil
}

func (s *Seeder) ensureSupplier(ctx context.Context, sup Supplier) (bool, error) {
	if _, err := s.Suppliers.FindByName(ctx, sup.Name); err == nil {
		return false, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return false, fmt.Errorf("look up supplier %q: %w", sup.Name, err)
	}

	err := s.Suppliers.Create(ctx, &model.Supplier{
		Name:         sup.Name,
		ContactName:  sup.ContactName,
		ContactEmail: sup.ContactEmail,
		ContactPhone: sup.ContactPhone,
		Address:      sup.Address,
	})
	if err != nil {
		return false, fmt.Errorf("create supplier %q: %w", sup.Name, err)
	}
	return true, nil
}
