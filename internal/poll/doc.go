// Package poll runs fetch jobs that may ask to be repeated after a fixed
// delay.
//
// A Poller owns exactly one timer handle and at most one in-flight request.
// Start and Stop bump a generation counter; a job result is committed only if
// its generation is still current, so a slow response for superseded inputs
// is dropped instead of overwriting newer data. Jobs read their parameters
// when they run, which means a scheduled follow-up always uses live inputs.
//
// Cycle states:
//
//	Idle ──Start/Refresh──▶ Fetching ──Again──▶ Scheduled ──timer──▶ Fetching
//	  ▲                        │                    │
//	  └────────done────────────┘◀───Stop/Start──────┘
//
// Clock abstracts time.AfterFunc. Tests use ManualClock and call Advance to
// fire timers deterministically.
package poll
