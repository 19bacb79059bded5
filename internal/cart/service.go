package cart

import (
	"context"
	"errors"
	"time"

	"storefront-be/internal/catalog"
	"storefront-be/internal/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ProductReader is the slice of the catalog the cart needs.
type ProductReader interface {
	FindByID(ctx context.Context, id string) (*catalog.Product, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*catalog.Product, error)
}

// Service is the Cart Engine. Every operation takes the caller's user id
// explicitly.
type Service interface {
	AddOrUpdateLine(ctx context.Context, userID string, in LineInput) (*View, error)
	UpdateLine(ctx context.Context, userID string, in LineInput) (*View, error)
	RemoveLine(ctx context.Context, userID string, key LineKey) (*View, error)
	GetCart(ctx context.Context, userID string) (*View, error)
	DeleteCart(ctx context.Context, userID string) error
	Snapshot(ctx context.Context, userID string) (*Snapshot, error)
}

type service struct {
	repo     Repository
	products ProductReader
	cache    Cache
	sfg      singleflight.Group
}

func NewService(repo Repository, products ProductReader, cache Cache) Service {
	if cache == nil {
		cache = NopCache{}
	}
	return &service{repo: repo, products: products, cache: cache}
}

// AddOrUpdateLine sets the quantity of the (product, size, color) line,
// appending it when absent. Quantities are replaced, never summed.
func (s *service) AddOrUpdateLine(ctx context.Context, userID string, in LineInput) (*View, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "AddOrUpdateLine"),
		zap.String("product_id", in.ProductID),
	)

	if err := in.validate(); err != nil {
		return nil, err
	}

	product, err := s.products.FindByID(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}

	cart, err := s.repo.FindByUser(ctx, userID)
	if errors.Is(err, ErrCartNotFound) {
		cart = &Cart{UserID: userID}
	} else if err != nil {
		log.Error("failed to load cart", zap.Error(err))
		return nil, err
	}

	line := LineItem{
		ProductID: product.ID,
		Quantity:  in.Quantity,
		Size:      in.Size,
		Color:     in.Color,
		LineTotal: LineTotal(product.Price, in.Quantity),
	}
	if idx := cart.find(product.ID, in.Size, in.Color); idx >= 0 {
		cart.Products[idx] = line
	} else {
		cart.Products = append(cart.Products, line)
	}

	return s.save(ctx, log, cart)
}

func (s *service) UpdateLine(ctx context.Context, userID string, in LineInput) (*View, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "UpdateLine"),
		zap.String("product_id", in.ProductID),
	)

	if err := in.validate(); err != nil {
		return nil, err
	}

	cart, err := s.repo.FindByUser(ctx, userID)
	if errors.Is(err, ErrCartNotFound) {
		return nil, ErrLineNotFound
	}
	if err != nil {
		log.Error("failed to load cart", zap.Error(err))
		return nil, err
	}

	productID, err := primitive.ObjectIDFromHex(in.ProductID)
	if err != nil {
		return nil, ErrLineNotFound
	}
	idx := cart.find(productID, in.Size, in.Color)
	if idx < 0 {
		return nil, ErrLineNotFound
	}

	product, err := s.products.FindByID(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}

	cart.Products[idx].Quantity = in.Quantity
	cart.Products[idx].LineTotal = LineTotal(product.Price, in.Quantity)

	return s.save(ctx, log, cart)
}

// RemoveLine drops the matching line. A key that matches nothing still
// saves and returns the cart unchanged.
func (s *service) RemoveLine(ctx context.Context, userID string, key LineKey) (*View, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "RemoveLine"),
		zap.String("product_id", key.ProductID),
	)

	if err := key.validate(); err != nil {
		return nil, err
	}

	cart, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		if !errors.Is(err, ErrCartNotFound) {
			log.Error("failed to load cart", zap.Error(err))
		}
		return nil, err
	}

	if productID, err := primitive.ObjectIDFromHex(key.ProductID); err == nil {
		if idx := cart.find(productID, key.Size, key.Color); idx >= 0 {
			cart.Products = append(cart.Products[:idx], cart.Products[idx+1:]...)
		}
	}

	return s.save(ctx, log, cart)
}

func (s *service) GetCart(ctx context.Context, userID string) (*View, error) {
	cart, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.resolve(ctx, cart)
}

func (s *service) DeleteCart(ctx context.Context, userID string) error {
	if err := s.repo.DeleteByUser(ctx, userID); err != nil {
		logger.FromCtx(ctx).Error("failed to delete cart", zap.Error(err))
		return err
	}
	s.invalidate(ctx, userID)
	return nil
}

// Snapshot prices the stored cart at current catalog prices for checkout.
// It always reads the store, never the cache.
func (s *service) Snapshot(ctx context.Context, userID string) (*Snapshot, error) {
	cart, err := s.repo.FindByUser(ctx, userID)
	if errors.Is(err, ErrCartNotFound) {
		return nil, ErrEmptyCart
	}
	if err != nil {
		return nil, err
	}
	if len(cart.Products) == 0 {
		return nil, ErrEmptyCart
	}

	products, err := s.products.FindByIDs(ctx, productIDs(cart))
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{CartID: cart.ID, UserID: cart.UserID}
	totals := make([]float64, 0, len(cart.Products))
	for _, l := range cart.Products {
		p, ok := products[l.ProductID]
		if !ok {
			return nil, catalog.ErrProductNotFound
		}
		total := LineTotal(p.Price, l.Quantity)
		snap.Lines = append(snap.Lines, SnapshotLine{
			Product:   p,
			Quantity:  l.Quantity,
			Size:      l.Size,
			Color:     l.Color,
			UnitPrice: p.Price,
			LineTotal: total,
		})
		totals = append(totals, total)
	}
	snap.TotalPrice = Sum(totals...)

	return snap, nil
}

func (s *service) save(ctx context.Context, log *zap.Logger, cart *Cart) (*View, error) {
	cart.recomputeTotal()

	if err := s.repo.Save(ctx, cart); err != nil {
		log.Error("failed to save cart", zap.Error(err))
		return nil, err
	}
	s.invalidate(ctx, cart.UserID)

	log.Info("cart saved",
		zap.Int("lines", len(cart.Products)),
		zap.Float64("total_price", cart.TotalPrice),
	)
	return s.resolve(ctx, cart)
}

// loadTimeout bounds a shared load once it no longer follows the caller that
// started it.
const loadTimeout = 5 * time.Second

// load reads through the cache. Concurrent misses for one user share a
// single store round trip, which outlives the caller that started it.
func (s *service) load(ctx context.Context, userID string) (*Cart, error) {
	v, err, _ := s.sfg.Do(userID, func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()

		cart, err := s.cache.Get(ctx, userID)
		if err == nil {
			return cart, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			logger.FromCtx(ctx).Warn("cache get error", zap.Error(err))
		}

		cart, err = s.repo.FindByUser(ctx, userID)
		if err != nil {
			return nil, err
		}

		if err := s.cache.Set(ctx, userID, cart); err != nil {
			logger.FromCtx(ctx).Warn("cache set error", zap.Error(err))
		}
		return cart, nil
	})
	if err != nil {
		return nil, err
	}

	// Callers sharing the flight must not alias one another's cart.
	shared := v.(*Cart)
	cart := *shared
	cart.Products = append([]LineItem(nil), shared.Products...)
	return &cart, nil
}

func (s *service) invalidate(ctx context.Context, userID string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, userID); err != nil {
		logger.FromCtx(ctx).Warn("cache invalidate error", zap.Error(err))
	}
}

// resolve populates product references and prices every line at the
// current catalog price. Lines whose product is gone keep their stored total.
func (s *service) resolve(ctx context.Context, cart *Cart) (*View, error) {
	products, err := s.products.FindByIDs(ctx, productIDs(cart))
	if err != nil {
		return nil, err
	}

	view := &View{
		ID:        cart.ID,
		UserID:    cart.UserID,
		Products:  make([]ResolvedLine, 0, len(cart.Products)),
		CreatedAt: cart.CreatedAt,
		UpdatedAt: cart.UpdatedAt,
	}
	totals := make([]float64, 0, len(cart.Products))
	for _, l := range cart.Products {
		line := ResolvedLine{
			Quantity:  l.Quantity,
			Size:      l.Size,
			Color:     l.Color,
			LineTotal: l.LineTotal,
		}
		if p, ok := products[l.ProductID]; ok {
			line.Product = p
			line.LineTotal = LineTotal(p.Price, l.Quantity)
		}
		view.Products = append(view.Products, line)
		totals = append(totals, line.LineTotal)
	}
	view.TotalPrice = Sum(totals...)

	return view, nil
}

func productIDs(cart *Cart) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]struct{}, len(cart.Products))
	ids := make([]primitive.ObjectID, 0, len(cart.Products))
	for _, l := range cart.Products {
		if _, ok := seen[l.ProductID]; ok {
			continue
		}
		seen[l.ProductID] = struct{}{}
		ids = append(ids, l.ProductID)
	}
	return ids
}
