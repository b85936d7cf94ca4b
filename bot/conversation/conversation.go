// Package conversation runs turn-based question/answer flows with a single user in a single
// channel. A flow is a chain of steps; each step sends a prompt, waits for exactly one reply
// within its timeout, and either hands over to the next step or finishes. Draft state lives in
// the steps' closures, so an aborted flow leaves nothing behind.
package conversation

import (
	"applybot/bot/errs"
	"applybot/bot/metrics"
	"applybot/bot/responses"
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	FieldTimeout    = 120 * time.Second
	MenuTimeout     = 60 * time.Second
	QuestionTimeout = 300 * time.Second
	AnswerTimeout   = 600 * time.Second
)

var (
	ErrTimeout        = errors.New("no reply before the step deadline")
	ErrCancelled      = errors.New("cancelled by user")
	ErrFlowInProgress = errors.New("a conversation is already running for this user")
)

type Reply struct {
	Content     string
	Attachments []string
}

type Step struct {
	Prompt  responses.Notice
	Timeout time.Duration
	// Handle consumes the reply. It returns the next step, or nil once the flow is complete.
	Handle func(ctx context.Context, reply Reply) (*Step, error)
}

type Flow struct {
	Name      string
	UserId    string
	ChannelId string
	First     *Step
	// TimeoutNotice is sent when a step expires. Defaults to a generic message.
	TimeoutNotice *responses.Notice
}

type Sender interface {
	SendNotice(channelId string, notice responses.Notice) error
}

type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d. Tests swap it for a manual clock.
type AfterFunc func(d time.Duration, f func()) Timer

func RealTimers(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

type active struct {
	flow  *Flow
	step  *Step
	gen   uint64
	timer Timer
	busy  bool
}

type Manager struct {
	mu     sync.Mutex
	flows  map[string]*active
	sender Sender
	after  AfterFunc
	log    logrus.FieldLogger
}

func NewManager(sender Sender, after AfterFunc, log logrus.FieldLogger) *Manager {
	if after == nil {
		after = RealTimers
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Manager{
		flows:  make(map[string]*active),
		sender: sender,
		after:  after,
		log:    log,
	}
}

// Active reports whether the user is in the middle of a flow.
func (m *Manager) Active(userId string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.flows[userId]
	return ok
}

// Start registers the flow and sends its first prompt.
func (m *Manager) Start(flow *Flow) error {
	m.mu.Lock()
	if _, ok := m.flows[flow.UserId]; ok {
		m.mu.Unlock()
		return ErrFlowInProgress
	}
	a := &active{flow: flow, step: flow.First, busy: true}
	m.flows[flow.UserId] = a
	m.mu.Unlock()

	metrics.ConversationStarted(flow.Name)

	if err := m.sender.SendNotice(flow.ChannelId, flow.First.Prompt); err != nil {
		m.mu.Lock()
		delete(m.flows, flow.UserId)
		m.mu.Unlock()
		metrics.ConversationFinished(flow.Name, "undeliverable")
		return errs.Delivery(flow.UserId, err)
	}

	m.mu.Lock()
	m.armLocked(a)
	m.mu.Unlock()

	return nil
}

// Deliver hands a message to the author's flow. It reports whether the message belonged to the
// flow; messages arriving while the current reply is still being handled are dropped but still
// reported as consumed.
func (m *Manager) Deliver(ctx context.Context, userId, channelId string, reply Reply) bool {
	m.mu.Lock()
	a, ok := m.flows[userId]
	if !ok || a.flow.ChannelId != channelId {
		m.mu.Unlock()
		return false
	}
	if a.busy {
		m.mu.Unlock()
		return true
	}
	a.busy = true
	a.gen++
	if a.timer != nil {
		a.timer.Stop()
	}
	step := a.step
	m.mu.Unlock()

	next, err := step.Handle(ctx, reply)

	switch {
	case err != nil:
		m.finish(a, err)
	case next == nil:
		m.finish(a, nil)
	default:
		m.advance(a, next)
	}

	return true
}

func (m *Manager) advance(a *active, next *Step) {
	m.mu.Lock()
	if m.flows[a.flow.UserId] != a {
		m.mu.Unlock()
		return
	}
	a.step = next
	m.mu.Unlock()

	if err := m.sender.SendNotice(a.flow.ChannelId, next.Prompt); err != nil {
		m.log.WithError(err).WithField("flow", a.flow.Name).Printf("Could not send prompt to %v", a.flow.UserId)
		m.finish(a, errs.Delivery(a.flow.UserId, err))
		return
	}

	m.mu.Lock()
	if m.flows[a.flow.UserId] == a {
		m.armLocked(a)
	}
	m.mu.Unlock()
}

func (m *Manager) armLocked(a *active) {
	a.busy = false
	gen := a.gen
	userId := a.flow.UserId
	a.timer = m.after(a.step.Timeout, func() { m.expire(userId, gen) })
}

func (m *Manager) expire(userId string, gen uint64) {
	m.mu.Lock()
	a, ok := m.flows[userId]
	if !ok || a.gen != gen || a.busy {
		m.mu.Unlock()
		return
	}
	a.busy = true
	m.mu.Unlock()

	m.finish(a, ErrTimeout)
}

func (m *Manager) finish(a *active, err error) {
	m.mu.Lock()
	if m.flows[a.flow.UserId] != a {
		m.mu.Unlock()
		return
	}
	delete(m.flows, a.flow.UserId)
	m.mu.Unlock()

	if err == nil {
		metrics.ConversationFinished(a.flow.Name, "completed")
		return
	}

	logger := m.log.WithFields(logrus.Fields{"flow": a.flow.Name, "user": a.flow.UserId})
	var notice responses.Notice

	switch {
	case errors.Is(err, ErrTimeout):
		metrics.ConversationFinished(a.flow.Name, "timeout")
		logger.Println("Conversation timed out")
		notice = responses.Failed("Failed", "Cancelled or timed out")
		if a.flow.TimeoutNotice != nil {
			notice = *a.flow.TimeoutNotice
		}
	case errors.Is(err, ErrCancelled):
		metrics.ConversationFinished(a.flow.Name, "cancelled")
		logger.Println("Conversation cancelled")
		notice = responses.Failed("Cancelled", "Cancelled")
	case errs.IsValidation(err):
		metrics.ConversationFinished(a.flow.Name, "invalid")
		logger.WithError(err).Println("Conversation aborted on invalid input")
		var v *errs.ValidationError
		errors.As(err, &v)
		notice = responses.Failed("Error", v.Reason)
	case errors.Is(err, errs.ErrDeliveryFailure):
		metrics.ConversationFinished(a.flow.Name, "undeliverable")
		logger.WithError(err).Println("Conversation aborted, user unreachable")
		return
	default:
		metrics.ConversationFinished(a.flow.Name, "failed")
		logger.WithError(err).Println("Conversation failed")
		notice = responses.SomethingWrong
	}

	if sendErr := m.sender.SendNotice(a.flow.ChannelId, notice); sendErr != nil {
		logger.WithError(sendErr).Println("Could not send terminal notice")
	}
}
