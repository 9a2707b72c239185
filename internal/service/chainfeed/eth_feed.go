package chainfeed

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"deposit-core/pkg/logger"
	"deposit-core/pkg/monitor"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
)

// EthFeed wraps two ethclient connections: HTTP for on-demand lookups and
// websocket for the header subscription. Subscription loss is handled
// internally with unbounded retries on a fixed backoff; subscribers observe
// a pause in the stream, never a close, until the context is cancelled.
type EthFeed struct {
	wsURL   string
	client  *ethclient.Client
	chainID *big.Int
	backoff time.Duration

	// mu single-flights reconnects of the shared streaming handle.
	mu       sync.Mutex
	wsClient *ethclient.Client
}

// Dial connects both endpoints. A failure here is a fatal startup error;
// the process supervisor restarts us.
func Dial(ctx context.Context, rpcURL, wsURL string, backoff time.Duration) (*EthFeed, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial rpc %s: %w", rpcURL, err)
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("read chain id: %w", err)
	}

	f := &EthFeed{
		wsURL:   wsURL,
		client:  client,
		chainID: chainID,
		backoff: backoff,
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.dialWSLocked(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("dial ws %s: %w", wsURL, err)
	}

	logger.Info("chain feed connected",
		zap.String("chain_id", chainID.String()),
		zap.String("ws_url", wsURL))
	return f, nil
}

// Subscribe returns an infinite header stream. The channel closes only when
// ctx is cancelled.
func (f *EthFeed) Subscribe(ctx context.Context) (<-chan *types.Header, error) {
	in := make(chan *types.Header, 16)
	sub, err := f.subscribeHeads(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("subscribe new heads: %w", err)
	}

	out := make(chan *types.Header)
	go f.pump(ctx, sub, in, out)
	return out, nil
}

func (f *EthFeed) pump(ctx context.Context, sub ethereum.Subscription, in chan *types.Header, out chan<- *types.Header) {
	defer close(out)
	for {
		select {
		case <-ctx.Done():
			sub.Unsubscribe()
			return
		case h := <-in:
			select {
			case out <- h:
			case <-ctx.Done():
				sub.Unsubscribe()
				return
			}
		case err := <-sub.Err():
			logger.Warn("header subscription dropped, reconnecting", zap.Error(err))
			sub.Unsubscribe()
			sub = f.resubscribe(ctx, in)
			if sub == nil {
				return
			}
		}
	}
}

// resubscribe retries until it has a live subscription or ctx is done.
func (f *EthFeed) resubscribe(ctx context.Context, in chan *types.Header) ethereum.Subscription {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(f.backoff):
		}

		if monitor.Business != nil {
			monitor.Business.FeedReconnectsTotal.Inc()
		}

		sub, err := f.subscribeHeads(ctx, in)
		if err == nil {
			logger.Info("header subscription restored")
			return sub
		}
		logger.Warn("reconnect failed", zap.Error(err))
	}
}

func (f *EthFeed) subscribeHeads(ctx context.Context, ch chan *types.Header) (ethereum.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.wsClient == nil {
		if err := f.dialWSLocked(ctx); err != nil {
			return nil, err
		}
	}

	sub, err := f.wsClient.SubscribeNewHead(ctx, ch)
	if err != nil {
		// Stale handle; drop it so the next attempt redials.
		f.wsClient.Close()
		f.wsClient = nil
		return nil, err
	}
	return sub, nil
}

func (f *EthFeed) dialWSLocked(ctx context.Context) error {
	c, err := ethclient.DialContext(ctx, f.wsURL)
	if err != nil {
		return err
	}
	f.wsClient = c
	return nil
}

// BlockByNumber fetches a block with full transaction bodies.
func (f *EthFeed) BlockByNumber(ctx context.Context, number *big.Int) (*types.Block, error) {
	b, err := f.client.BlockByNumber(ctx, number)
	if err != nil {
		return nil, fmt.Errorf("%w: block %v: %v", ErrFeedUnavailable, number, err)
	}
	return b, nil
}

// HeaderByNumber fetches the header currently canonical at a height.
func (f *EthFeed) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	h, err := f.client.HeaderByNumber(ctx, number)
	if err != nil {
		return nil, fmt.Errorf("%w: header %v: %v", ErrFeedUnavailable, number, err)
	}
	return h, nil
}

// TransactionReceipt distinguishes "not mined yet" from upstream failure.
func (f *EthFeed) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	r, err := f.client.TransactionReceipt(ctx, txHash)
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return nil, ErrNotYetMined
		}
		return nil, fmt.Errorf("%w: receipt %s: %v", ErrFeedUnavailable, txHash, err)
	}
	return r, nil
}

// BlockNumber returns the current chain height.
func (f *EthFeed) BlockNumber(ctx context.Context) (uint64, error) {
	n, err := f.client.BlockNumber(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: height: %v", ErrFeedUnavailable, err)
	}
	return n, nil
}

// ChainID is fixed for the lifetime of the feed.
func (f *EthFeed) ChainID() *big.Int {
	return f.chainID
}

// Close tears down both connections.
func (f *EthFeed) Close() {
	f.mu.Lock()
	if f.wsClient != nil {
		f.wsClient.Close()
		f.wsClient = nil
	}
	f.mu.Unlock()
	f.client.Close()
}
