package verify

// Failure areas for recommendation categorization.
var probeAreas = map[string]string{
	ProbeBasicHealth:    "health",
	ProbeDetailedHealth: "health",
	ProbeDatabaseHealth: "dependency",
	ProbeMemoryHealth:   "dependency",
	ProbeWSConnectivity: "realtime",
	ProbeWSAuth:         "realtime",
}

// rollbackThreshold is the failure count above which the report
// suggests considering a rollback.
const rollbackThreshold = 2

// recommend derives the ordered recommendation list from a report's
// results.
func recommend(report *Report) []string {
	failed := report.FailedResults()
	if len(failed) == 0 {
		return []string{"All verification probes passed. Deployment is safe to keep."}
	}

	areas := map[string]bool{}
	other := false
	for _, result := range failed {
		if area, ok := probeAreas[result.Name]; ok {
			areas[area] = true
		} else {
			other = true
		}
	}

	var recs []string
	if areas["health"] {
		recs = append(recs, "Health endpoints are failing; check application logs for startup errors.")
	}
	if areas["realtime"] {
		recs = append(recs, "Realtime channel probes failed; verify the websocket server started and the route is exposed.")
	}
	if areas["dependency"] {
		recs = append(recs, "A backing dependency reports unhealthy; check database and resource limits before retrying.")
	}
	if other {
		recs = append(recs, "Review the failed probe details above for endpoint-level problems.")
	}
	if len(failed) > rollbackThreshold {
		recs = append(recs, "More than two probes failed; consider rolling back to the previous revision.")
	}
	return recs
}
