package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// UserSessionKey returns the cache key for a learner's login session.
func (r *CacheKeyStruct) UserSessionKey(userID string) string {
	return fmt.Sprintf("login:%s", userID)
}

// CourseAttemptChannel returns the Redis PubSub channel carrying
// attempt lifecycle events for one course.
func (r *CacheKeyStruct) CourseAttemptChannel(courseID string) string {
	return fmt.Sprintf("course:%s:attempt_events", courseID)
}

// AttemptEventChannel returns the Redis PubSub channel carrying all
// attempt lifecycle events platform-wide.
func (r *CacheKeyStruct) AttemptEventChannel() string {
	return "attempt_events"
}

var CacheKey = NewCacheKeyStruct()
