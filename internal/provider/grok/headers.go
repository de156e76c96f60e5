package grok

import "net/http"

// defaultHeaders mirror a desktop browser session on grok.com.
var defaultHeaders = map[string]string{
	"Accept":             "*/*",
	"Accept-Language":    "zh-CN,zh;q=0.9,en;q=0.8",
	"Content-Type":       "text/plain;charset=UTF-8",
	"Origin":             "https://grok.com",
	"Referer":            "https://grok.com/",
	"Priority":           "u=1, i",
	"User-Agent":         "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/133.0.0.0 Safari/537.36",
	"Sec-Ch-Ua":          `"Not(A:Brand";v="99", "Google Chrome";v="133", "Chromium";v="133"`,
	"Sec-Ch-Ua-Mobile":   "?0",
	"Sec-Ch-Ua-Platform": `"Windows"`,
	"Sec-Fetch-Dest":     "empty",
	"Sec-Fetch-Mode":     "cors",
	"Sec-Fetch-Site":     "same-origin",
	"DNT":                "1",
	"Cache-Control":      "no-cache",
	"Pragma":             "no-cache",
}

func applyDefaultHeaders(h http.Header, cookie string) {
	for k, v := range defaultHeaders {
		h.Set(k, v)
	}
	if cookie != "" {
		h.Set("Cookie", cookie)
	}
}
