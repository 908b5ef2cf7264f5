package models

import "time"

// timeNow is the clock used by expiry and overdue checks.
// Tests swap it out to pin "now".
var timeNow = time.Now
