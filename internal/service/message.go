package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/oggyb/sms-framework/internal/cache"
	"github.com/oggyb/sms-framework/internal/domain/gateway"
	"github.com/oggyb/sms-framework/internal/domain/message"
	"github.com/oggyb/sms-framework/internal/pipeline"
)

// gatewayMessageTTL bounds how long a gateway message id can be mapped back
// to our message when delivery reports arrive.
const gatewayMessageTTL = 7 * 24 * time.Hour

// MessageService is the entry point for queueing messages and persists the
// outcome of every send or incoming call.
type MessageService struct {
	messages   message.Repository
	reports    message.ReportRepository
	gateways   *gateway.Registry
	dispatcher *pipeline.Dispatcher
	cache      cache.Cache

	now func() time.Time
}

// NewMessageService creates a message service and registers it as the
// dispatcher's finalizer. cache may be nil.
func NewMessageService(
	messages message.Repository,
	reports message.ReportRepository,
	gateways *gateway.Registry,
	dispatcher *pipeline.Dispatcher,
	c cache.Cache,
) *MessageService {
	s := &MessageService{
		messages:   messages,
		reports:    reports,
		gateways:   gateways,
		dispatcher: dispatcher,
		cache:      c,
		now:        func() time.Time { return time.Now().UTC() },
	}
	dispatcher.SetFinalizer(s)
	return s
}

// Queue hands a message to the pipeline. It returns the messages that were
// stored or, for skip-queue gateways, already processed.
func (s *MessageService) Queue(ctx context.Context, m *message.Message) ([]*message.Message, error) {
	return s.dispatcher.Queue(ctx, m)
}

// ReceiveIncoming lets the gateway's plugin parse a pushed request and
// queues every incoming message it yields. Messages are queued in order; an
// error stops the batch and reports how many were accepted.
func (s *MessageService) ReceiveIncoming(ctx context.Context, req *http.Request, gatewayID string) (int, error) {
	g, err := s.gateways.Get(gatewayID)
	if err != nil {
		return 0, err
	}
	parser, ok := g.Plugin().(gateway.IncomingParser)
	if !ok || !g.Capabilities().SupportsIncoming {
		return 0, fmt.Errorf("%w: gateway %s does not accept incoming messages", message.ErrValidation, g.ID)
	}

	msgs, err := parser.ParseIncoming(req)
	if err != nil {
		return 0, fmt.Errorf("%w: gateway %s: %v", message.ErrValidation, g.ID, err)
	}

	for i, m := range msgs {
		m.Direction = message.DirectionIncoming
		m.GatewayID = g.ID
		if _, err := s.dispatcher.Queue(ctx, m); err != nil {
			return i, fmt.Errorf("queue incoming message %s: %w", m.UUID, err)
		}
	}

	log.Printf("[Incoming] Accepted %d message(s) from %s", len(msgs), g.ID)
	return len(msgs), nil
}

// Get loads a stored message.
func (s *MessageService) Get(ctx context.Context, id uuid.UUID) (*message.Message, error) {
	return s.messages.Get(ctx, id)
}

// Process runs a claimed message through the pipeline again and finalizes
// it. PRE_PROCESS is skipped because it already ran when the message was
// queued. Stored incoming messages carry no per-recipient reports, so their
// delivered result is rebuilt before the incoming stages run.
func (s *MessageService) Process(ctx context.Context, m *message.Message) error {
	m.SetOption(message.OptionSkipPreprocess, "1")
	if m.Direction == message.DirectionIncoming && m.Result == nil {
		m.Result = message.DeliveredResult(m, s.now())
	}

	var (
		done []*message.Message
		err  error
	)
	if m.Direction == message.DirectionIncoming {
		done, err = s.dispatcher.Incoming(ctx, m)
	} else {
		done, err = s.dispatcher.Send(ctx, m)
	}
	if err != nil {
		return err
	}
	return s.Finalize(ctx, done)
}

// Fail records that a claimed message could not be processed so it is not
// picked up again. The error becomes the message's result.
func (s *MessageService) Fail(ctx context.Context, m *message.Message, cause error) error {
	m.Result = &message.Result{ErrorCode: "processing_failed", ErrorMessage: cause.Error()}
	m.MarkProcessed(s.now())
	if err := s.messages.MarkProcessed(ctx, m); err != nil {
		return fmt.Errorf("mark message %s processed: %w", m.UUID, err)
	}
	if err := s.messages.SaveResult(ctx, m.UUID, m.Result); err != nil {
		return fmt.Errorf("save result for %s: %w", m.UUID, err)
	}
	return nil
}

// Release clears the claim on a message that was taken from the work queue
// but never processed.
func (s *MessageService) Release(ctx context.Context, id uuid.UUID) error {
	if err := s.messages.Release(ctx, id); err != nil {
		return fmt.Errorf("release message %s: %w", id, err)
	}
	return nil
}

// Finalize implements pipeline.Finalizer. Chunks of the same message are
// folded back together before the result is stored, then the gateway's
// retention decides whether the message is kept.
func (s *MessageService) Finalize(ctx context.Context, msgs []*message.Message) error {
	for _, m := range mergeChunks(msgs) {
		if err := s.complete(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

func (s *MessageService) complete(ctx context.Context, m *message.Message) error {
	g, err := s.gateways.Get(m.GatewayID)
	if err != nil {
		return err
	}
	m.MarkProcessed(s.now())

	var link *uuid.UUID
	if g.RetentionFor(m.Direction) == 0 {
		if err := s.messages.Delete(ctx, m.UUID); err != nil && !errors.Is(err, message.ErrNotFound) {
			return fmt.Errorf("delete message %s: %w", m.UUID, err)
		}
	} else {
		if err := s.persist(ctx, m); err != nil {
			return err
		}
		id := m.UUID
		link = &id
	}

	return s.storeReports(ctx, g, link, m)
}

// persist stores a processed message, inserting it first when it never
// went through the queue.
func (s *MessageService) persist(ctx context.Context, m *message.Message) error {
	_, err := s.messages.Get(ctx, m.UUID)
	switch {
	case errors.Is(err, message.ErrNotFound):
		if err := s.messages.Save(ctx, m); err != nil {
			return fmt.Errorf("save message %s: %w", m.UUID, err)
		}
	case err != nil:
		return fmt.Errorf("load message %s: %w", m.UUID, err)
	default:
		if err := s.messages.MarkProcessed(ctx, m); err != nil {
			return fmt.Errorf("mark message %s processed: %w", m.UUID, err)
		}
	}

	if m.Result == nil {
		return nil
	}
	if err := s.messages.SaveResult(ctx, m.UUID, m.Result); err != nil {
		return fmt.Errorf("save result for %s: %w", m.UUID, err)
	}
	return nil
}

func (s *MessageService) storeReports(ctx context.Context, g *gateway.Gateway, link *uuid.UUID, m *message.Message) error {
	if m.Result == nil {
		return nil
	}
	for _, rep := range m.Result.Reports {
		if rep.GatewayID == "" {
			rep.GatewayID = g.ID
		}
		if rep.StatusTime.IsZero() {
			rep.StatusTime = s.now()
		}
		if _, err := s.reports.Append(ctx, link, rep); err != nil {
			return fmt.Errorf("store report %s/%s: %w", rep.MessageID, rep.Recipient, err)
		}

		if s.cache != nil && link != nil {
			key := cache.GatewayMessages.Key(g.ID + ":" + rep.MessageID)
			if err := s.cache.Set(ctx, key, link.String(), gatewayMessageTTL); err != nil {
				log.Printf("[Service] Failed to cache gateway message %s: %v", rep.MessageID, err)
			}
		}
	}
	return nil
}

// mergeChunks folds messages sharing a UUID into one, keeping first-seen
// order, the union of recipients and the merged result.
func mergeChunks(msgs []*message.Message) []*message.Message {
	var (
		order  []uuid.UUID
		merged = make(map[uuid.UUID]*message.Message, len(msgs))
	)
	for _, m := range msgs {
		cur, ok := merged[m.UUID]
		if !ok {
			merged[m.UUID] = m
			order = append(order, m.UUID)
			continue
		}
		if cur == m {
			continue
		}
		combined := cur.Clone()
		combined.AddRecipients(m.Recipients...)
		combined.Result = message.MergeResults(cur.Result, m.Result)
		merged[m.UUID] = combined
	}

	out := make([]*message.Message, 0, len(order))
	for _, id := range order {
		out = append(out, merged[id])
	}
	return out
}

var _ pipeline.Finalizer = (*MessageService)(nil)
