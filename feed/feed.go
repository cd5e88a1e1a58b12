// Package feed keeps a cache of live prices streamed over a websocket and
// serves them as a papertrade.PriceSource.
//
// The protocol is minimal. The client sends
//
//	{"method":"subscribe","symbols":["AAPL","MSFT"]}
//
// and the server pushes ticks
//
//	{"symbol":"AAPL","price":187.45,"time":1741012200000}
//
// where time, in unix milliseconds, is optional.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/etnz/papertrade"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SubscriptionMessage is sent to the server to receive ticks for symbols.
type SubscriptionMessage struct {
	Method  string   `json:"method"`
	Symbols []string `json:"symbols"`
}

// Tick is a price update pushed by the server.
type Tick struct {
	Symbol string          `json:"symbol"`
	Price  decimal.Decimal `json:"price"`
	Time   int64           `json:"time,omitempty"`
}

type priceData struct {
	price     papertrade.Money
	timestamp time.Time
}

// Feed is a connected price stream.
type Feed struct {
	conn    *websocket.Conn
	writeMu sync.Mutex

	currency string
	maxAge   time.Duration
	wait     time.Duration
	now      func() time.Time
	log      *zap.Logger

	mu         sync.RWMutex
	prices     map[string]priceData
	subscribed map[string]bool
	updated    chan struct{} // closed and replaced on every tick.
	err        error         // set once the read loop stops.

	done chan struct{}
}

// Option configures a Feed.
type Option func(*Feed)

// WithMaxAge sets how long a tick stays valid, 30s by default.
func WithMaxAge(d time.Duration) Option { return func(f *Feed) { f.maxAge = d } }

// WithWait sets how long Price waits for the first tick of a symbol it just
// subscribed to, 2s by default.
func WithWait(d time.Duration) Option { return func(f *Feed) { f.wait = d } }

// WithCurrency sets the currency prices are quoted in.
func WithCurrency(c string) Option { return func(f *Feed) { f.currency = c } }

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option { return func(f *Feed) { f.log = l } }

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option { return func(f *Feed) { f.now = now } }

// Dial connects to the feed at url and subscribes to symbols.
func Dial(ctx context.Context, url string, symbols []string, opts ...Option) (*Feed, error) {
	f := &Feed{
		currency:   papertrade.DefaultCurrency,
		maxAge:     30 * time.Second,
		wait:       2 * time.Second,
		now:        time.Now,
		log:        zap.NewNop(),
		prices:     make(map[string]priceData),
		subscribed: make(map[string]bool),
		updated:    make(chan struct{}),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(f)
	}

	dialer := &websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
		ReadBufferSize:   4096,
		WriteBufferSize:  4096,
	}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial websocket: %w", err)
	}
	f.conn = conn
	f.log.Info("connected to price feed", zap.String("url", url))

	go f.readLoop()

	if len(symbols) > 0 {
		if err := f.Subscribe(symbols...); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}

// Subscribe asks the server for ticks on symbols not yet subscribed.
func (f *Feed) Subscribe(symbols ...string) error {
	f.mu.Lock()
	var missing []string
	for _, s := range symbols {
		s = papertrade.NormalizeSymbol(s)
		if !f.subscribed[s] {
			f.subscribed[s] = true
			missing = append(missing, s)
		}
	}
	f.mu.Unlock()
	if len(missing) == 0 {
		return nil
	}

	f.writeMu.Lock()
	defer f.writeMu.Unlock()
	if err := f.conn.WriteJSON(SubscriptionMessage{Method: "subscribe", Symbols: missing}); err != nil {
		f.mu.Lock()
		for _, s := range missing {
			delete(f.subscribed, s)
		}
		f.mu.Unlock()
		return fmt.Errorf("failed to subscribe to %v: %w", missing, err)
	}
	f.log.Debug("subscribed", zap.Strings("symbols", missing))
	return nil
}

// Price returns the latest fresh tick of symbol. A symbol seen for the first
// time is subscribed to, and Price waits a little for its first tick.
func (f *Feed) Price(ctx context.Context, symbol string) (papertrade.Money, error) {
	symbol = papertrade.NormalizeSymbol(symbol)
	if err := f.Subscribe(symbol); err != nil {
		return papertrade.Money{}, err
	}

	timer := time.NewTimer(f.wait)
	defer timer.Stop()
	for {
		f.mu.RLock()
		data, ok := f.prices[symbol]
		updated, readErr := f.updated, f.err
		f.mu.RUnlock()

		if ok {
			if f.now().Sub(data.timestamp) > f.maxAge {
				return papertrade.Money{}, fmt.Errorf("%s: price is stale since %v: %w", symbol, data.timestamp, papertrade.ErrPriceUnavailable)
			}
			return data.price, nil
		}
		if readErr != nil {
			return papertrade.Money{}, fmt.Errorf("%s: feed is down: %v: %w", symbol, readErr, papertrade.ErrPriceUnavailable)
		}
		select {
		case <-ctx.Done():
			return papertrade.Money{}, ctx.Err()
		case <-timer.C:
			return papertrade.Money{}, fmt.Errorf("%s: no tick received: %w", symbol, papertrade.ErrPriceUnavailable)
		case <-updated:
		}
	}
}

// Close disconnects from the server and waits for the read loop to stop.
func (f *Feed) Close() error {
	f.writeMu.Lock()
	_ = f.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	f.writeMu.Unlock()
	err := f.conn.Close()
	<-f.done
	return err
}

func (f *Feed) readLoop() {
	defer close(f.done)
	for {
		_, message, err := f.conn.ReadMessage()
		if err != nil {
			if !errors.Is(err, websocket.ErrCloseSent) && !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				f.log.Warn("price feed read failed", zap.Error(err))
			}
			f.mu.Lock()
			f.err = err
			close(f.updated)
			f.updated = make(chan struct{})
			f.mu.Unlock()
			return
		}
		f.processMessage(message)
	}
}

func (f *Feed) processMessage(message []byte) {
	var tick Tick
	if err := json.Unmarshal(message, &tick); err != nil {
		f.log.Debug("ignoring message", zap.ByteString("message", message), zap.Error(err))
		return
	}
	symbol := papertrade.NormalizeSymbol(tick.Symbol)
	if papertrade.ValidateSymbol(symbol) != nil || !tick.Price.IsPositive() {
		f.log.Debug("ignoring invalid tick", zap.ByteString("message", message))
		return
	}
	at := f.now()
	if tick.Time > 0 {
		at = time.UnixMilli(tick.Time)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if prev, ok := f.prices[symbol]; ok && prev.timestamp.After(at) {
		return // out of order.
	}
	f.prices[symbol] = priceData{price: papertrade.M(tick.Price, f.currency).Round(), timestamp: at}
	close(f.updated)
	f.updated = make(chan struct{})
}
