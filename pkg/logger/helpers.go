package logger

// LogFetch records the outcome of a single media download.
func LogFetch(url string, size int, success bool, err error) {
	fields := map[string]interface{}{
		"url":     url,
		"size":    size,
		"success": success,
	}
	if err != nil {
		fields["error"] = err.Error()
		GetLogger().ErrorWithFields("media fetch failed", fields)
		return
	}
	GetLogger().DebugWithFields("media fetched", fields)
}

// LogBatchFlush records one batch flush attempt.
func LogBatchFlush(chatID string, size int, err error) {
	fields := map[string]interface{}{
		"chat_id":    chatID,
		"batch_size": size,
	}
	if err != nil {
		fields["error"] = err.Error()
		GetLogger().WarnWithFields("batch flush rejected by transport", fields)
		return
	}
	GetLogger().InfoWithFields("batch flushed", fields)
}
