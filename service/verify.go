package service

import (
	"context"
	"time"

	"github.com/waverify/waverify/model"
	"github.com/waverify/waverify/pkg/log"
	"github.com/waverify/waverify/wa"
)

// ProgressSink receives progress checkpoints of a running bulk job. Delivery
// is a convenience: implementations must swallow their own transport errors.
type ProgressSink func(processed, total int, current string)

const lookupTimeout = 30 * time.Second

// RunBulk verifies numbers sequentially over ownerID's ready session. A
// single lookup failure lands that number in Errored and the job continues.
// Lookups are strictly sequential with a fixed inter-request delay; the
// throttle keeps the external platform's anti-automation defenses quiet and
// must not be parallelized away. If the session disappears mid-job the
// partial report is returned together with SessionExpiredErr.
func (s *Sessions) RunBulk(ownerID int64, numbers []string, sink ProgressSink) (*model.VerificationReport, error) {
	sess, ok := s.reg.Get(ownerID)
	if !ok || sess.State != model.StateReady {
		return nil, model.SessionExpiredErr
	}
	// capture the handle once; liveness is re-checked at progress checkpoints
	handle := sess.Handle

	report := &model.VerificationReport{
		Total:        len(numbers),
		Registered:   []string{},
		Unregistered: []string{},
		Errored:      []string{},
	}
	for i, number := range numbers {
		if i%10 == 0 || i == len(numbers)-1 {
			if _, ok := s.reg.Get(ownerID); !ok {
				log.Warn("bulk job of %v: session removed after %v/%v, aborting", ownerID, i, len(numbers))
				report.Partial = true
				return report, model.SessionExpiredErr
			}
			if sink != nil {
				sink(i, len(numbers), number)
			}
		}
		registered, err := s.lookup(handle, number)
		if err != nil {
			log.Info("bulk job of %v: check %v: %v", ownerID, number, err)
			report.Errored = append(report.Errored, number)
		} else if registered {
			report.Registered = append(report.Registered, number)
		} else {
			report.Unregistered = append(report.Unregistered, number)
		}
		if i < len(numbers)-1 {
			time.Sleep(s.opts.CheckDelay)
		}
	}
	return report, nil
}

// CheckOne verifies a single number without the bulk throttle. A lookup
// failure is folded into the outcome rather than returned, matching the bulk
// engine's error isolation.
func (s *Sessions) CheckOne(ownerID int64, number string) (*model.CheckOutcome, error) {
	sess, ok := s.reg.Get(ownerID)
	if !ok || sess.State != model.StateReady {
		return nil, model.SessionExpiredErr
	}
	handle := sess.Handle
	outcome := &model.CheckOutcome{
		Number:     number,
		Identifier: wa.ContactID(number),
	}
	registered, err := s.lookup(handle, number)
	if err != nil {
		log.Info("check %v for %v: %v", number, ownerID, err)
		outcome.Status = model.CheckError
		return outcome, nil
	}
	if !registered {
		outcome.Status = model.CheckNotRegistered
		return outcome, nil
	}
	outcome.Status = model.CheckRegistered
	outcome.Name = s.contactName(handle, outcome.Identifier)
	return outcome, nil
}

func (s *Sessions) lookup(handle wa.Client, number string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
	defer cancel()
	return handle.IsRegisteredUser(ctx, wa.ContactID(number))
}

// contactName resolves display metadata best-effort.
func (s *Sessions) contactName(handle wa.Client, identifier string) string {
	ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
	defer cancel()
	contact, err := handle.GetContactByID(ctx, identifier)
	if err != nil {
		log.Debug("get contact %v: %v", identifier, err)
		return "name unavailable"
	}
	if name := contact.DisplayName(); name != "" {
		return name
	}
	return "name unavailable"
}
