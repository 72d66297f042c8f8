package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"questHuntAPI/internal/notification"
	"questHuntAPI/internal/storage"
	"questHuntAPI/internal/types/event"
)

// EventDispatcher is the notification sink the game services emit into. Each
// committed transition produces exactly one event; the dispatcher fans it out
// asynchronously to the registered providers (activity logs, websocket feed,
// FCM push) so delivery never blocks or fails a game call.
type EventDispatcher struct {
	store        storage.Store
	pushProvider notification.PushProvider
	feed         *FeedHub
	integration  *IntegrationService

	workers  int
	jobQueue chan event.Event
	stopChan chan struct{}
	wg       sync.WaitGroup
}

func NewEventDispatcher(store storage.Store) *EventDispatcher {
	d := &EventDispatcher{
		store:    store,
		workers:  5,
		jobQueue: make(chan event.Event, 100),
		stopChan: make(chan struct{}),
	}
	d.startWorkers()
	return d
}

// SetPushProvider injects the real FCM provider from main.go.
func (d *EventDispatcher) SetPushProvider(p notification.PushProvider) { d.pushProvider = p }

func (d *EventDispatcher) SetFeedHub(h *FeedHub) { d.feed = h }

func (d *EventDispatcher) SetIntegration(s *IntegrationService) { d.integration = s }

// Emit implements event.Sink. Queues the event; drops it with a log line if
// the queue stays full, a lost notification must never fail game state.
func (d *EventDispatcher) Emit(e event.Event) {
	select {
	case d.jobQueue <- e:
	case <-time.After(5 * time.Second):
		log.Printf("dispatcher: queue full, dropping event %s (%s)", e.ID, e.Type)
	}
}

func (d *EventDispatcher) startWorkers() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
}

func (d *EventDispatcher) worker() {
	defer d.wg.Done()
	for {
		select {
		case e := <-d.jobQueue:
			d.process(e)
		case <-d.stopChan:
			return
		}
	}
}

func (d *EventDispatcher) Stop() {
	close(d.stopChan)
	d.wg.Wait()
}

func (d *EventDispatcher) process(e event.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	log.Printf("event %s: actor=%s subject=%s hunt=%d challenge=%d", e.Type, e.Actor, e.Subject, e.HuntID, e.ChallengeID)

	if d.integration != nil {
		d.integration.Record(e)
	}
	if d.feed != nil {
		d.feed.BroadcastEvent(e)
	}

	if d.pushProvider == nil {
		return
	}
	target := e.Subject
	if target == "" {
		target = e.Actor
	}
	tokens, err := d.deviceTokens(ctx, target)
	if err != nil || len(tokens) == 0 {
		return
	}
	title, body := renderEvent(e)
	if title == "" {
		return
	}
	if err := d.pushProvider.SendPush(ctx, tokens, title, body, e.Data); err != nil {
		log.Printf("push failed for user %s: %v", target, err)
	}
}

func deviceKey(userID string) string { return storage.Key("device", userID) }

// RegisterDevice stores a push token for the caller's device.
func (d *EventDispatcher) RegisterDevice(ctx context.Context, userID, token, platform string) error {
	if token == "" {
		return fmt.Errorf("device token is required")
	}

	tx, err := d.store.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	existing, err := d.tokensInTx(ctx, tx, userID)
	if err != nil {
		return err
	}
	for _, t := range existing {
		if t.Token == token {
			// already registered
			return nil
		}
	}

	if err := appendJSON(ctx, tx, deviceKey(userID), notification.DeviceToken{Token: token, Platform: platform}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (d *EventDispatcher) deviceTokens(ctx context.Context, userID string) ([]notification.DeviceToken, error) {
	tx, err := d.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)
	return d.tokensInTx(ctx, tx, userID)
}

func (d *EventDispatcher) tokensInTx(ctx context.Context, tx storage.Tx, userID string) ([]notification.DeviceToken, error) {
	raw, err := tx.List(ctx, deviceKey(userID))
	if err != nil {
		return nil, err
	}
	tokens := make([]notification.DeviceToken, 0, len(raw))
	for _, r := range raw {
		var t notification.DeviceToken
		if err := json.Unmarshal(r, &t); err == nil {
			tokens = append(tokens, t)
		}
	}
	return tokens, nil
}

// renderEvent maps an event to the push title/body shown on a device. An
// empty title means the type is not pushed.
func renderEvent(e event.Event) (string, string) {
	switch e.Type {
	case event.TypeChallengeCompleted:
		return "Challenge solved!", fmt.Sprintf("You completed a challenge in hunt %d and earned %d points.", e.HuntID, e.Points)
	case event.TypeStreakUpdated:
		return "Streak updated", "Your solving streak just grew. Keep it alive!"
	case event.TypeRewardMinted:
		return "Reward unlocked", fmt.Sprintf("A reward NFT for hunt %d is yours.", e.HuntID)
	case event.TypeRewardUpgraded:
		return "Reward upgraded", "Your reward NFT moved up a tier."
	case event.TypeReferralClaimed:
		return "Referral reward claimed", "Your referral reward has been paid out."
	case event.TypePuzzleAssigned:
		return "New puzzle assigned", fmt.Sprintf("Solve challenge %d of hunt %d to continue.", e.ChallengeID, e.HuntID)
	default:
		return "", ""
	}
}
