package serviceimpl

import (
	"sync"

	"github.com/starloop/go-affiliate/service"
	"go.uber.org/zap"
)

const subscriberBuffer = 16

type subscriber struct {
	table       string
	affiliateID uint
	ch          chan service.Change
}

// changeFeed is the in-process stand-in for the hosted store's realtime
// subscriptions. Publish never blocks: a full subscriber channel drops the
// notification, and consumers are expected to reconcile with a full refetch.
type changeFeed struct {
	mu   sync.Mutex
	subs map[int]*subscriber
	next int
	log  *zap.Logger
}

var _ service.ChangeFeed = &changeFeed{}

func NewChangeFeed(log *zap.Logger) *changeFeed {
	return &changeFeed{
		subs: make(map[int]*subscriber),
		log:  log.Named("changes"),
	}
}

func (f *changeFeed) Subscribe(table string, affiliateID uint) (<-chan service.Change, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := f.next
	f.next++
	sub := &subscriber{
		table:       table,
		affiliateID: affiliateID,
		ch:          make(chan service.Change, subscriberBuffer),
	}
	f.subs[id] = sub

	cancel := func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if s, ok := f.subs[id]; ok {
			delete(f.subs, id)
			close(s.ch)
		}
	}
	return sub.ch, cancel
}

func (f *changeFeed) Publish(c service.Change) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, sub := range f.subs {
		if sub.table != "" && sub.table != c.Table {
			continue
		}
		if sub.affiliateID != 0 && sub.affiliateID != c.AffiliateID {
			continue
		}
		select {
		case sub.ch <- c:
		default:
			f.log.Debug("subscriber lagging, dropping change",
				zap.String("table", c.Table), zap.Uint("affiliateID", c.AffiliateID))
		}
	}
}
