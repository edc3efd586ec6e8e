package pubsub

import "testing"

type fakeSub struct {
	id       uint64
	received []string
}

func (f *fakeSub) ID() uint64 { return f.id }

func (f *fakeSub) Publish(channel string, payload []byte) error {
	f.received = append(f.received, channel+":"+string(payload))
	return nil
}

func TestSubscribePublishDelivers(t *testing.T) {
	bus := NewBus()
	a := &fakeSub{id: 1}
	b := &fakeSub{id: 2}

	bus.Subscribe(a, "news")
	bus.Subscribe(b, "news", "sports")

	delivered := bus.Publish("news", []byte("hello"))
	if delivered != 2 {
		t.Fatalf("expected 2 deliveries, got %d", delivered)
	}
	if len(a.received) != 1 || a.received[0] != "news:hello" {
		t.Fatalf("subscriber a missed the message: %v", a.received)
	}

	delivered = bus.Publish("sports", []byte("score"))
	if delivered != 1 {
		t.Fatalf("expected 1 delivery on sports, got %d", delivered)
	}
}

func TestUnsubscribeRemovesFromChannel(t *testing.T) {
	bus := NewBus()
	a := &fakeSub{id: 1}
	bus.Subscribe(a, "news")

	remaining := bus.Unsubscribe(a, "news")
	if remaining != 0 {
		t.Fatalf("expected 0 remaining subscriptions, got %d", remaining)
	}

	if n := bus.Publish("news", []byte("x")); n != 0 {
		t.Fatalf("expected no subscribers left, delivered to %d", n)
	}
}

func TestUnsubscribeAllClearsEveryChannel(t *testing.T) {
	bus := NewBus()
	a := &fakeSub{id: 1}
	bus.Subscribe(a, "news", "sports", "weather")

	bus.UnsubscribeAll(a)

	for _, ch := range []string{"news", "sports", "weather"} {
		if n := bus.Publish(ch, []byte("x")); n != 0 {
			t.Fatalf("expected channel %q to be empty after UnsubscribeAll", ch)
		}
	}
}

func TestChannelsAndNumSub(t *testing.T) {
	bus := NewBus()
	a := &fakeSub{id: 1}
	b := &fakeSub{id: 2}
	bus.Subscribe(a, "news")
	bus.Subscribe(b, "news", "sports")

	channels := bus.Channels("")
	if len(channels) != 2 {
		t.Fatalf("expected 2 active channels, got %v", channels)
	}

	counts := bus.NumSub([]string{"news", "sports", "missing"})
	if counts["news"] != 2 || counts["sports"] != 1 || counts["missing"] != 0 {
		t.Fatalf("unexpected NumSub result: %v", counts)
	}

	if bus.NumPat() != 0 {
		t.Fatalf("NumPat should always be 0")
	}
}

func TestSubscribedChannelsListsOnlyOwnSubscriptions(t *testing.T) {
	bus := NewBus()
	a := &fakeSub{id: 1}
	b := &fakeSub{id: 2}
	bus.Subscribe(a, "news", "sports")
	bus.Subscribe(b, "weather")

	channels := bus.SubscribedChannels(a)
	if len(channels) != 2 {
		t.Fatalf("expected 2 channels for a, got %v", channels)
	}
}

func TestChannelsPatternFilter(t *testing.T) {
	bus := NewBus()
	a := &fakeSub{id: 1}
	bus.Subscribe(a, "news.sports", "news.weather", "alerts")

	matched := bus.Channels("news.*")
	if len(matched) != 2 {
		t.Fatalf("expected 2 channels matching news.*, got %v", matched)
	}
}
