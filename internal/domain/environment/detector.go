// Package environment classifies the hosting runtime of a page load from passive signals.
// Detection is a pure function of its input: no I/O, no globals.
package environment

import (
	"regexp"
	"strings"
)

// Environment is the tagged classification of a runtime.
type Environment string

const (
	PlainBrowser      Environment = "plainBrowser"
	LineInApp         Environment = "lineInApp"
	WeChatMiniProgram Environment = "wechatMiniProgramWebview"
	FacebookWebview   Environment = "facebookWebview"
)

// GlobalWeChatEnvironment is the runtime global the WeChat JS bridge sets inside mini-program webviews.
const GlobalWeChatEnvironment = "__wxjs_environment"

// Signals are the passive inputs available to a page at load time.
type Signals struct {
	UserAgent string
	// Globals holds well-known runtime globals, keyed by name.
	Globals map[string]string
}

var (
	lineUA           = regexp.MustCompile(`(?i)line/`)
	microMessengerUA = regexp.MustCompile(`(?i)micromessenger`)
	miniProgramUA    = regexp.MustCompile(`(?i)miniprogram`)
	facebookMarkers  = []string{"FBAN", "FBAV", "FB_IAB", "FBIOS", "FB4A"}
)

// Detect returns exactly one classification. When signals match several runtimes
// the priority is LINE, then WeChat, then Facebook.
func Detect(signals Signals) Environment {
	switch {
	case IsLineInApp(signals):
		return LineInApp
	case IsWeChatMiniProgram(signals):
		return WeChatMiniProgram
	case IsFacebookWebview(signals):
		return FacebookWebview
	default:
		return PlainBrowser
	}
}

// IsLineInApp matches the LINE in-app browser user agent.
func IsLineInApp(signals Signals) bool {
	return lineUA.MatchString(signals.UserAgent)
}

// IsWeChatMiniProgram matches the mini-program webview by its runtime global or user agent.
func IsWeChatMiniProgram(signals Signals) bool {
	if signals.Globals[GlobalWeChatEnvironment] == "miniprogram" {
		return true
	}

	if strings.Contains(signals.UserAgent, "miniProgram") {
		return true
	}

	return microMessengerUA.MatchString(signals.UserAgent) && miniProgramUA.MatchString(signals.UserAgent)
}

// IsFacebookWebview matches any of the Facebook in-app browser markers.
func IsFacebookWebview(signals Signals) bool {
	for _, marker := range facebookMarkers {
		if strings.Contains(signals.UserAgent, marker) {
			return true
		}
	}

	return false
}

// FromUserAgent is a shorthand for server-side classification where only the header is known.
func FromUserAgent(userAgent string) Environment {
	return Detect(Signals{UserAgent: userAgent})
}
