package checkout

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/campusfreestore/freestore-backend/internal/barcode"
	"github.com/campusfreestore/freestore-backend/internal/inventory"
	"github.com/campusfreestore/freestore-backend/internal/orders"
	"github.com/campusfreestore/freestore-backend/pkg/config"
	"github.com/campusfreestore/freestore-backend/pkg/db/models"
	pkgerrors "github.com/campusfreestore/freestore-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const cartBucket = "cart"

const orderNumberAttempts = 5

var twelveDigitRe = regexp.MustCompile(`^\d{12}$`)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type stateStore interface {
	Get(ctx context.Context, sessionID, bucket string, dest any) (bool, error)
	Put(ctx context.Context, sessionID, bucket string, value any) error
	Del(ctx context.Context, sessionID, bucket string) error
}

// Service implements the public shop-floor browse, cart, and order commit.
type Service interface {
	ListShopfloor(ctx context.Context, filter string) ([]models.Inventory, error)
	GetCart(ctx context.Context, sessionID string) (Cart, error)
	AddToCart(ctx context.Context, sessionID string, input AddToCartInput) (Cart, error)
	RemoveFromCart(ctx context.Context, sessionID string, inventoryID uuid.UUID) (Cart, error)
	CommitOrder(ctx context.Context, sessionID string, input CommitOrderInput) (*Receipt, error)
}

type service struct {
	inv     inventory.Repository
	orders  orders.Repository
	tx      txRunner
	state   stateStore
	cfg     config.CheckoutConfig
	emailRe *regexp.Regexp
}

// NewService builds the checkout service.
func NewService(inv inventory.Repository, ordersRepo orders.Repository, tx txRunner, state stateStore, cfg config.CheckoutConfig) (Service, error) {
	if inv == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "inventory repository required")
	}
	if ordersRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders repository required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	if state == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "session state store required")
	}
	return &service{
		inv:     inv,
		orders:  ordersRepo,
		tx:      tx,
		state:   state,
		cfg:     cfg,
		emailRe: campusEmailRegexp(cfg.EmailDomains),
	}, nil
}

func campusEmailRegexp(domains []string) *regexp.Regexp {
	escaped := make([]string, 0, len(domains))
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d == "" {
			continue
		}
		escaped = append(escaped, regexp.QuoteMeta(d))
	}
	if len(escaped) == 0 {
		escaped = append(escaped, regexp.QuoteMeta("rowan.edu"))
	}
	return regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@(` + strings.Join(escaped, "|") + `)$`)
}

// ListShopfloor returns the browsable shop-floor rows: active, in stock, with
// an active product.
func (s *service) ListShopfloor(ctx context.Context, filter string) ([]models.Inventory, error) {
	floor, err := s.shopfloor(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := s.inv.ListRows(ctx, inventory.RowFilter{
		Search:      filter,
		LocationID:  &floor.ID,
		ActiveOnly:  true,
		InStockOnly: true,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list shop floor")
	}
	return rows, nil
}

func (s *service) GetCart(ctx context.Context, sessionID string) (Cart, error) {
	cart := Cart{}
	if _, err := s.state.Get(ctx, sessionID, cartBucket, &cart); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return cart, nil
}

// AddToCart resolves the row (scan or explicit id), checks stock against what
// the cart already holds, and accumulates. Scanned adds are always quantity 1.
func (s *service) AddToCart(ctx context.Context, sessionID string, input AddToCartInput) (Cart, error) {
	cart, err := s.GetCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	var row *models.Inventory
	quantity := input.Quantity

	switch {
	case strings.TrimSpace(input.Barcode) != "":
		row, err = s.resolveScan(ctx, input.Barcode)
		if err != nil {
			return nil, err
		}
		quantity = 1
	case input.InventoryID != nil:
		row, err = s.inv.FindRowByID(ctx, *input.InventoryID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory row")
		}
		if quantity <= 0 {
			quantity = 1
		}
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "either barcode or inventory id must be provided")
	}

	if !row.IsActive || row.Product == nil || !row.Product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}

	key := row.ID.String()
	if row.Quantity < cart[key]+quantity {
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock,
			fmt.Sprintf("insufficient quantity in inventory for %s", row.Product.Name)).
			WithDetails(map[string]any{
				"inventory_id": key,
				"available":    row.Quantity,
				"in_cart":      cart[key],
				"requested":    quantity,
			})
	}

	cart[key] += quantity
	if err := s.state.Put(ctx, sessionID, cartBucket, cart); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart")
	}
	return cart, nil
}

// RemoveFromCart deletes the line. Removing an absent line is a no-op.
func (s *service) RemoveFromCart(ctx context.Context, sessionID string, inventoryID uuid.UUID) (Cart, error) {
	cart, err := s.GetCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	delete(cart, inventoryID.String())
	if err := s.state.Put(ctx, sessionID, cartBucket, cart); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart")
	}
	return cart, nil
}

// CommitOrder turns the cart into an Order in one transaction. Stock is
// re-verified per line with an atomic guarded decrement; any shortfall rolls
// the whole order back and leaves the cart untouched so the customer can
// adjust and retry.
func (s *service) CommitOrder(ctx context.Context, sessionID string, input CommitOrderInput) (*Receipt, error) {
	implicitID, err := s.validateImplicitID(input.ImplicitID)
	if err != nil {
		return nil, err
	}

	cart, err := s.GetCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if len(cart) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	keys := make([]string, 0, len(cart))
	for key := range cart {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	orderNumber, err := s.newOrderNumber(ctx)
	if err != nil {
		return nil, err
	}

	receipt := &Receipt{OrderNumber: orderNumber, ImplicitID: implicitID}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		invRepo := s.inv.WithTx(tx)
		ordersRepo := s.orders.WithTx(tx)

		order, err := ordersRepo.CreateOrder(ctx, &models.Order{
			OrderNumber: orderNumber,
			ImplicitID:  implicitID,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		items := make([]models.OrderItem, 0, len(keys))
		for _, key := range keys {
			quantity := cart[key]
			rowID, err := uuid.Parse(key)
			if err != nil {
				return pkgerrors.New(pkgerrors.CodeValidation, "cart contains an invalid item")
			}

			ok, err := invRepo.DecrementStock(ctx, rowID, quantity)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
			}

			row, rowErr := invRepo.FindRowByID(ctx, rowID)
			if !ok {
				name := "item"
				if rowErr == nil && row.Product != nil {
					name = row.Product.Name
				}
				return pkgerrors.New(pkgerrors.CodeInsufficientStock,
					fmt.Sprintf("insufficient stock for %s", name)).
					WithDetails(map[string]any{"inventory_id": key, "requested": quantity})
			}
			if rowErr != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, rowErr, "reload inventory row")
			}

			items = append(items, models.OrderItem{
				OrderID:     order.ID,
				InventoryID: rowID,
				Quantity:    quantity,
			})

			if row.Product != nil {
				receipt.Items = append(receipt.Items, ReceiptItem{
					Name:         row.Product.Name,
					Manufacturer: row.Product.Manufacturer,
					Quantity:     quantity,
				})
			}

			if row.Quantity == 0 && row.Product != nil && !row.Product.IsActive {
				row.IsActive = false
				if err := invRepo.SaveRow(ctx, row); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate drained row")
				}
			}
		}

		if err := ordersRepo.CreateOrderItems(ctx, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order items")
		}

		receipt.CreatedAt = order.CreatedAt
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.state.Del(ctx, sessionID, cartBucket); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return receipt, nil
}

func (s *service) resolveScan(ctx context.Context, scanned string) (*models.Inventory, error) {
	scanned = strings.TrimSpace(scanned)
	if err := barcode.Validate(scanned); err != nil {
		return nil, err
	}

	product, err := s.inv.FindProductByNormalizedBarcode(ctx, barcode.Normalize(scanned))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup product by barcode")
	}

	floor, err := s.shopfloor(ctx)
	if err != nil {
		return nil, err
	}

	row, err := s.inv.FindRowByProductLocation(ctx, product.ID, floor.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory row")
	}

	full, err := s.inv.FindRowByID(ctx, row.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory row")
	}
	return full, nil
}

func (s *service) shopfloor(ctx context.Context) (*models.Location, error) {
	floor, err := s.inv.FindLocationByName(ctx, s.cfg.ShopfloorLocation)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeDependency, "shop floor location is not configured")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shop floor location")
	}
	return floor, nil
}

// validateImplicitID accepts a campus email or a 12-digit card number.
func (s *service) validateImplicitID(raw string) (string, error) {
	id := strings.TrimSpace(raw)
	if twelveDigitRe.MatchString(id) {
		return id, nil
	}
	if s.emailRe.MatchString(strings.ToLower(id)) {
		return strings.ToLower(id), nil
	}
	return "", pkgerrors.New(pkgerrors.CodeValidation,
		"identifier must be a campus email address or a 12-digit card number")
}

func (s *service) newOrderNumber(ctx context.Context) (string, error) {
	for i := 0; i < orderNumberAttempts; i++ {
		candidate := uuid.NewString()
		candidate = strings.ReplaceAll(candidate, "-", "")[:8]
		exists, err := s.orders.OrderNumberExists(ctx, candidate)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check order number")
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", pkgerrors.New(pkgerrors.CodeInternal, "could not allocate an order number")
}
