// Package trader places orders for users: it resolves the market price,
// runs the executor on the stored ledger and commits the result.
package trader

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/etnz/papertrade"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Service composes a Store, a PriceSource and an optional Journal.
type Service struct {
	store   papertrade.Store
	prices  papertrade.PriceSource
	journal papertrade.Journal
	log     *zap.Logger
	now     func() time.Time
	retries int

	mu    sync.Mutex
	users map[string]*sync.Mutex
}

// Option configures a Service.
type Option func(*Service)

// WithJournal records accepted trades in j.
func WithJournal(j papertrade.Journal) Option { return func(s *Service) { s.journal = j } }

// WithLogger sets the logger, zap.NewNop by default.
func WithLogger(l *zap.Logger) Option { return func(s *Service) { s.log = l } }

// WithClock overrides time.Now for trade timestamps.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// WithRetries sets how many times an order is re-executed after a save
// conflict, 3 by default.
func WithRetries(n int) Option { return func(s *Service) { s.retries = n } }

// New returns a service trading on store at prices.
func New(store papertrade.Store, prices papertrade.PriceSource, opts ...Option) *Service {
	s := &Service{
		store:   store,
		prices:  prices,
		log:     zap.NewNop(),
		now:     time.Now,
		retries: 3,
		users:   make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// lock serializes the load-execute-save cycles of one user within this
// process. Other processes are kept out by the store revision check.
func (s *Service) lock(user string) func() {
	s.mu.Lock()
	m, ok := s.users[user]
	if !ok {
		m = new(sync.Mutex)
		s.users[user] = m
	}
	s.mu.Unlock()
	m.Lock()
	return m.Unlock
}

// Buy is Place with papertrade.Buy.
func (s *Service) Buy(ctx context.Context, user, symbol string, quantity papertrade.Quantity) (papertrade.Trade, error) {
	return s.Place(ctx, user, symbol, papertrade.Buy, quantity)
}

// Sell is Place with papertrade.Sell.
func (s *Service) Sell(ctx context.Context, user, symbol string, quantity papertrade.Quantity) (papertrade.Trade, error) {
	return s.Place(ctx, user, symbol, papertrade.Sell, quantity)
}

// Place executes a market order for user at the current price of symbol.
//
// A rejected order returns a *papertrade.Rejection and leaves the stored
// ledger untouched. A price that cannot be resolved is rejected with
// papertrade.ErrInvalidPrice, except for context errors which are returned
// as is. Storage failures are *papertrade.StorageError.
func (s *Service) Place(ctx context.Context, user, symbol string, side papertrade.Side, quantity papertrade.Quantity) (papertrade.Trade, error) {
	if err := papertrade.ValidateUser(user); err != nil {
		return papertrade.Trade{}, err
	}
	o := papertrade.NewOrder(symbol, side, quantity, papertrade.Money{})
	log := s.log.With(zap.String("user", user), zap.String("symbol", o.Symbol), zap.Stringer("side", side), zap.Stringer("quantity", quantity))

	// Cheap checks first, no need to query a price for a malformed order.
	if err := precheck(o); err != nil {
		log.Info("order rejected", zap.Error(err))
		return papertrade.Trade{}, err
	}

	price, err := s.prices.Price(ctx, o.Symbol)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return papertrade.Trade{}, ctxErr
		}
		rej := &papertrade.Rejection{Order: o, Reason: papertrade.ErrInvalidPrice, Detail: err.Error()}
		log.Info("order rejected", zap.Error(rej))
		return papertrade.Trade{}, rej
	}
	o.Price = price

	unlock := s.lock(user)
	defer unlock()

	for attempt := 0; ; attempt++ {
		before, err := s.store.Load(ctx, user)
		if err != nil {
			return papertrade.Trade{}, &papertrade.StorageError{Op: "load", User: user, Err: err}
		}
		after, err := papertrade.Execute(before, o)
		if err != nil {
			log.Info("order rejected", zap.Error(err))
			return papertrade.Trade{}, err
		}
		err = s.store.Save(ctx, user, after)
		if errors.Is(err, papertrade.ErrConflict) && attempt < s.retries {
			log.Debug("ledger changed concurrently, retrying", zap.Int("attempt", attempt+1))
			continue
		}
		if err != nil {
			return papertrade.Trade{}, &papertrade.StorageError{Op: "save", User: user, Err: err}
		}

		trade := papertrade.NewTrade(s.now(), user, o, before, after)
		log.Info("order executed", zap.Stringer("price", price), zap.Stringer("cash", trade.Cash), zap.Stringer("trade", trade.ID))
		if s.journal != nil {
			// The ledger is committed already, a missing journal line is not
			// worth failing the order for.
			if err := s.journal.Append(ctx, user, trade); err != nil {
				log.Error("cannot journal trade", zap.Stringer("trade", trade.ID), zap.Error(err))
			}
		}
		return trade, nil
	}
}

// precheck runs the executor checks that do not depend on the price or the
// ledger, so that their rejection wins over an unavailable price.
func precheck(o papertrade.Order) error {
	probe := o
	probe.Price = papertrade.M(1, "")
	_, err := papertrade.Execute(papertrade.NewLedger(""), probe)
	if errors.Is(err, papertrade.ErrInsufficientCash) || errors.Is(err, papertrade.ErrInsufficientShares) {
		return nil
	}
	return err
}

// Quote returns the current price of symbol. An invalid symbol wraps
// papertrade.ErrInvalidSymbol; a symbol without a price wraps
// papertrade.ErrPriceUnavailable.
func (s *Service) Quote(ctx context.Context, symbol string) (papertrade.Money, error) {
	symbol = papertrade.NormalizeSymbol(symbol)
	if err := papertrade.ValidateSymbol(symbol); err != nil {
		return papertrade.Money{}, fmt.Errorf("%w: %v", papertrade.ErrInvalidSymbol, err)
	}
	return s.prices.Price(ctx, symbol)
}

// Ledger returns the current ledger of user.
func (s *Service) Ledger(ctx context.Context, user string) (papertrade.Ledger, error) {
	if err := papertrade.ValidateUser(user); err != nil {
		return papertrade.Ledger{}, err
	}
	l, err := s.store.Load(ctx, user)
	if err != nil {
		return papertrade.Ledger{}, &papertrade.StorageError{Op: "load", User: user, Err: err}
	}
	return l, nil
}

// History returns the trades of user, oldest first. It is empty when the
// service has no journal.
func (s *Service) History(ctx context.Context, user string) ([]papertrade.Trade, error) {
	if err := papertrade.ValidateUser(user); err != nil {
		return nil, err
	}
	if s.journal == nil {
		return nil, nil
	}
	trades, err := s.journal.Trades(ctx, user)
	if err != nil {
		return nil, &papertrade.StorageError{Op: "trades", User: user, Err: err}
	}
	return trades, nil
}

// Portfolio values the ledger of user at current prices. Prices are resolved
// concurrently; a symbol whose price cannot be resolved is reported as
// unavailable rather than failing the whole valuation.
func (s *Service) Portfolio(ctx context.Context, user string) (papertrade.Valuation, error) {
	l, err := s.Ledger(ctx, user)
	if err != nil {
		return papertrade.Valuation{}, err
	}

	symbols := l.Symbols()
	resolved := make([]papertrade.Money, len(symbols))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, symbol := range symbols {
		g.Go(func() error {
			price, err := s.prices.Price(gctx, symbol)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				s.log.Warn("price unavailable", zap.String("symbol", symbol), zap.Error(err))
				return nil
			}
			resolved[i] = price
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return papertrade.Valuation{}, fmt.Errorf("cannot resolve prices: %w", err)
	}

	quotes := make(papertrade.Prices, len(symbols))
	for i, symbol := range symbols {
		if resolved[i].IsPositive() {
			quotes[symbol] = resolved[i]
		}
	}
	return papertrade.Value(l, quotes), nil
}
