/*
Package resilience provides a circuit breaker for the external service
clients.

# States

  - Closed: normal operation, requests pass through
  - Open: the service is failing, requests fail immediately
  - Half-Open: probing recovery, a limited number of requests pass

Transitions:

	Closed --[failures]-> Open --[timeout]-> Half-Open --[successes]-> Closed
	                                           |
	                                      [failure]
	                                           |
	                                           v
	                                         Open

# Usage

	breaker := resilience.New("generate", resilience.Settings{
		MaxRequests: 5,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 10
		},
	})

	result, err := breaker.Execute(func() (interface{}, error) {
		return client.Call()
	})
*/
package resilience
