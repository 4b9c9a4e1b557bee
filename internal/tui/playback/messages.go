package playback

import "time"

// tickMsg advances playback while playing
type tickMsg time.Time
