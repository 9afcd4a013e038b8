package logging

import (
	"regexp"
)

var (
	// クエリ文字列の API キー (IPC の ?key=... など)
	queryKeyPattern = regexp.MustCompile(`([?&](?:key|api_key|token)=)[^&\s"]+`)

	// URL 内の認証情報
	userInfoPattern = regexp.MustCompile(`://([^:/\s]+):([^@/\s]+)@`)

	// Slack Incoming Webhook のトークン部分
	slackWebhookPattern = regexp.MustCompile(`hooks\.slack\.com/services/[A-Za-z0-9/]+`)
)

// SanitizeError は機密情報をマスクしたエラーメッセージを返す
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return SanitizeString(err.Error())
}

// SanitizeString masks credentials that may appear inside URLs.
func SanitizeString(msg string) string {
	msg = queryKeyPattern.ReplaceAllString(msg, "${1}****")
	msg = userInfoPattern.ReplaceAllString(msg, "://$1:****@")
	msg = slackWebhookPattern.ReplaceAllString(msg, "hooks.slack.com/services/****")
	return msg
}
