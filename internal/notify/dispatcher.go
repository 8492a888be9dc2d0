package notify

import (
	"context"
	"log"
	"sync"
	"time"

	"mindwell/internal/config"
	"mindwell/internal/redis"
)

const defaultCooldown = 15 * time.Minute

// Alert is one crisis fan-out request.
type Alert struct {
	UserID            string
	UserName          string
	CrisisLevel       string
	Contacts          Contacts
	AdditionalContext string
}

// Dispatcher fans crisis alerts out to the configured channels through a
// bounded worker pool. Dispatch never returns an error; every outcome lands
// in the Results.
type Dispatcher struct {
	sms      SMSSender
	email    EmailSender
	pool     *deliveryPool
	cache    *redis.Client
	cooldown time.Duration
	now      func() time.Time
}

// Options carries the dispatcher's collaborators.
type Options struct {
	SMS   SMSSender
	Email EmailSender
	Cache *redis.Client
}

// NewDispatcher builds the dispatcher; pool bounds come from the basic
// config, cooldown from the notify config.
func NewDispatcher(cfg *config.Config, opts Options) *Dispatcher {
	minWorkers, maxWorkers := 1, 4
	idle := time.Duration(0)
	cooldown := defaultCooldown
	if cfg != nil {
		if cfg.BasicConfig.MinWorkers > 0 {
			minWorkers = cfg.BasicConfig.MinWorkers
		}
		if cfg.BasicConfig.MaxWorkers > 0 {
			maxWorkers = cfg.BasicConfig.MaxWorkers
		}
		if cfg.BasicConfig.WorkerIdleTimeout > 0 {
			idle = time.Duration(cfg.BasicConfig.WorkerIdleTimeout) * time.Minute
		}
		if cfg.Notify.CooldownMinutes > 0 {
			cooldown = time.Duration(cfg.Notify.CooldownMinutes) * time.Minute
		}
	}
	return &Dispatcher{
		sms:      opts.SMS,
		email:    opts.Email,
		pool:     newDeliveryPool(minWorkers, maxWorkers, idle),
		cache:    opts.Cache,
		cooldown: cooldown,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Channels reports which delivery channels are configured.
func (d *Dispatcher) Channels() (sms, email bool) {
	return d.sms != nil, d.email != nil
}

// Dispatch sends the alert to every configured contact channel and reports
// per-channel outcomes. Repeat alerts for the same user inside the cooldown
// window are suppressed to avoid spamming contacts during one episode.
func (d *Dispatcher) Dispatch(ctx context.Context, alert Alert) Results {
	results := Results{
		NotificationsSent:   []Sent{},
		NotificationsFailed: []Failed{},
	}

	if alert.Contacts.Phone == "" && alert.Contacts.Email == "" {
		results.Reason = "no emergency contacts configured"
		return results
	}
	if d.suppressed(ctx, alert.UserID) {
		results.Suppressed = true
		results.Reason = "cooldown active for this user"
		log.Printf("notify: alert for %s suppressed by cooldown", alert.UserID)
		return results
	}

	userName := alert.UserName
	if userName == "" {
		userName = "User"
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	record := func(channel, to string, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			results.NotificationsFailed = append(results.NotificationsFailed, Failed{
				Type: channel, To: to, Error: err.Error(),
			})
			log.Printf("notify: %s to %s failed: %v", channel, to, err)
			return
		}
		results.NotificationsSent = append(results.NotificationsSent, Sent{
			Type: channel, To: to, Timestamp: d.now(),
		})
		results.TotalSuccessful++
	}

	if alert.Contacts.Phone != "" {
		results.TotalAttempted++
		if d.sms == nil {
			record("sms", alert.Contacts.Phone, errNotConfigured("sms"))
		} else {
			to := alert.Contacts.Phone
			body := smsBody(userName, alert.CrisisLevel, d.now())
			wg.Add(1)
			d.pool.submit(func() {
				defer wg.Done()
				record("sms", to, d.sms.SendSMS(ctx, to, body))
			})
		}
	}
	if alert.Contacts.Email != "" {
		results.TotalAttempted++
		if d.email == nil {
			record("email", alert.Contacts.Email, errNotConfigured("email"))
		} else {
			to := alert.Contacts.Email
			subject := emailSubject(userName, alert.CrisisLevel)
			body := emailBody(userName, alert.CrisisLevel, alert.AdditionalContext, d.now())
			wg.Add(1)
			d.pool.submit(func() {
				defer wg.Done()
				record("email", to, d.email.SendEmail(ctx, to, subject, body))
			})
		}
	}
	wg.Wait()

	log.Printf("notify: crisis alert for %s: %d/%d successful",
		alert.UserID, results.TotalSuccessful, results.TotalAttempted)
	return results
}

// suppressed marks the user's cooldown window and reports whether one was
// already active. No cache means no suppression.
func (d *Dispatcher) suppressed(ctx context.Context, userID string) bool {
	if d.cache == nil || userID == "" {
		return false
	}
	set, err := d.cache.SetNX(ctx, "mindwell:notify:cooldown:"+userID, d.now().Format(time.RFC3339), d.cooldown)
	if err != nil {
		log.Printf("notify: cooldown check for %s: %v", userID, err)
		return false
	}
	return !set
}

type errNotConfigured string

func (e errNotConfigured) Error() string {
	return string(e) + " channel not configured"
}
