package environment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const (
	iosLineUA      = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Mobile/15E148 Safari Line/13.20.0"
	androidWeChat  = "Mozilla/5.0 (Linux; Android 13; Pixel 7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/116.0 Mobile Safari/537.36 MicroMessenger/8.0.40 MiniProgramEnv/android"
	plainWeChatUA  = "Mozilla/5.0 (iPhone) AppleWebKit/605.1.15 (KHTML, like Gecko) Mobile/15E148 MicroMessenger/8.0.40 NetType/WIFI"
	facebookIOSUA  = "Mozilla/5.0 (iPhone) AppleWebKit/605.1.15 (KHTML, like Gecko) Mobile/15E148 [FBAN/FBIOS;FBAV/440.0.0.30.109;]"
	facebookAndUA  = "Mozilla/5.0 (Linux; Android 14) AppleWebKit/537.36 Chrome/120.0 Mobile Safari/537.36 [FB_IAB/FB4A;FBAV/447.0.0.0;]"
	desktopChromUA = "Mozilla/5.0 (Macintosh; Intel Mac OS X 14_0) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name    string
		signals Signals
		want    Environment
	}{
		{name: "line in-app", signals: Signals{UserAgent: iosLineUA}, want: LineInApp},
		{name: "line lowercase marker", signals: Signals{UserAgent: "something line/11.0"}, want: LineInApp},
		{name: "wechat mini program ua", signals: Signals{UserAgent: androidWeChat}, want: WeChatMiniProgram},
		{name: "wechat global", signals: Signals{UserAgent: plainWeChatUA, Globals: map[string]string{GlobalWeChatEnvironment: "miniprogram"}}, want: WeChatMiniProgram},
		{name: "wechat camel marker", signals: Signals{UserAgent: "Mozilla/5.0 miniProgram"}, want: WeChatMiniProgram},
		{name: "plain wechat browser is not mini program", signals: Signals{UserAgent: plainWeChatUA}, want: PlainBrowser},
		{name: "facebook ios", signals: Signals{UserAgent: facebookIOSUA}, want: FacebookWebview},
		{name: "facebook android", signals: Signals{UserAgent: facebookAndUA}, want: FacebookWebview},
		{name: "desktop", signals: Signals{UserAgent: desktopChromUA}, want: PlainBrowser},
		{name: "empty", signals: Signals{}, want: PlainBrowser},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Detect(tt.signals))
		})
	}
}

func TestDetect_PriorityWhenSignalsOverlap(t *testing.T) {
	both := Signals{UserAgent: iosLineUA + " FBAV/440.0"}
	assert.True(t, IsFacebookWebview(both))
	assert.Equal(t, LineInApp, Detect(both))

	wechatAndFacebook := Signals{UserAgent: androidWeChat + " FBAN/FBIOS"}
	assert.Equal(t, WeChatMiniProgram, Detect(wechatAndFacebook))
}

func TestDetect_IsPure(t *testing.T) {
	signals := Signals{UserAgent: androidWeChat, Globals: map[string]string{"x": "y"}}

	first := Detect(signals)
	second := Detect(signals)

	assert.Equal(t, first, second)
	assert.Equal(t, map[string]string{"x": "y"}, signals.Globals)
}

func TestFromUserAgent(t *testing.T) {
	assert.Equal(t, FacebookWebview, FromUserAgent(facebookIOSUA))
}
