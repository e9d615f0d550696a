package packet

import (
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
)

// ChannelCallback is invoked when the socket reports it will no
// longer block on writes, so a channel can push more window-limited
// data (spec.md §4.9).
type ChannelCallback func(channelID uint32, remoteWindow uint64)

// FlowControlFanout is the channel registry for C9. It intentionally
// gives no ordering guarantee across channels, matching spec.md's "No
// ordering guarantees between channels": the registry is backed by a
// set, not a list.
type FlowControlFanout struct {
	mu        sync.Mutex
	ids       mapset.Set[uint32]
	callbacks map[uint32]ChannelCallback
	windowOf  map[uint32]func() uint64
}

func NewFlowControlFanout() *FlowControlFanout {
	return &FlowControlFanout{
		ids:       mapset.NewThreadUnsafeSet[uint32](),
		callbacks: make(map[uint32]ChannelCallback),
		windowOf:  make(map[uint32]func() uint64),
	}
}

// RegisterChannel subscribes a channel to write-unblock notifications.
// remoteWindow is called lazily at notification time so the fan-out
// always reports the channel's current window, not a stale snapshot.
func (f *FlowControlFanout) RegisterChannel(id uint32, cb ChannelCallback, remoteWindow func() uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids.Add(id)
	f.callbacks[id] = cb
	f.windowOf[id] = remoteWindow
}

func (f *FlowControlFanout) UnregisterChannel(id uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids.Remove(id)
	delete(f.callbacks, id)
	delete(f.windowOf, id)
}

// NotifyWriteWontBlock fans out WRITE_WOULD_NOT_BLOCK to every
// registered channel.
func (f *FlowControlFanout) NotifyWriteWontBlock() {
	f.mu.Lock()
	ids := f.ids.ToSlice()
	cbs := make(map[uint32]ChannelCallback, len(ids))
	wins := make(map[uint32]func() uint64, len(ids))
	for _, id := range ids {
		cbs[id] = f.callbacks[id]
		wins[id] = f.windowOf[id]
	}
	f.mu.Unlock()

	for _, id := range ids {
		cb, win := cbs[id], wins[id]
		if cb == nil {
			continue
		}
		var w uint64
		if win != nil {
			w = win()
		}
		cb(id, w)
	}
}
