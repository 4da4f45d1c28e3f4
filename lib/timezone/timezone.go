package timezone

import "time"

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("America/Los_Angeles")
	if err != nil {
		panic(err)
	}
}

// force timezone to be pacific because the processing authority publishes
// dates in pacific time, and date math via <time.Time>.Year()/Month()/Day()
// in whatever zone the host landed in shifts ETA boundaries by a day
func Now() time.Time {
	return time.Now().In(Location)
}
