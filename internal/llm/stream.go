package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/yockii/slide_stream/internal/constant"
	"github.com/yockii/slide_stream/pkg/logger"
)

const (
	// EventStatusUpdate 携带标记片段的事件
	EventStatusUpdate = "status-update"
	// EventDetail 其余的过程信息，仅作为日志保存
	EventDetail = "detail"
)

// 响应分帧方式
const (
	FramingAuto   = ""
	FramingSSE    = "sse"
	FramingNDJSON = "ndjson"
)

// 单个事件允许的最大长度
const maxEventSize = 4 * 1024 * 1024

type StreamClient struct {
	baseUrl       string
	defaultAPIKey string
	model         string
	framing       string
	httpClient    *http.Client
}

// NewStreamClient timeout 只限制等待响应头的时间，响应体持续多久由 ctx 决定
func NewStreamClient(baseUrl, defaultAPIKey, model string, timeout time.Duration) *StreamClient {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = timeout
	return &StreamClient{
		baseUrl:       strings.TrimRight(baseUrl, "/"),
		defaultAPIKey: defaultAPIKey,
		model:         model,
		httpClient:    &http.Client{Transport: transport},
	}
}

// WithFraming 固定响应分帧方式，默认根据 Content-Type 判断
func (c *StreamClient) WithFraming(framing string) *StreamClient {
	c.framing = framing
	return c
}

type GenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
	APIKey string `json:"-"`
}

type Event struct {
	Type       string   `json:"type"`
	Data       string   `json:"data"`
	Author     string   `json:"author,omitempty"`
	References []string `json:"references,omitempty"`
}

// Generate 发起流式生成，每解码出一个事件调用一次 cb，cb 返回错误时终止
func (c *StreamClient) Generate(ctx context.Context, req *GenerateRequest, cb func(Event) error) error {
	if cb == nil {
		return fmt.Errorf("流式生成必须提供回调: %w", constant.ErrInvalidParams)
	}
	if req.Model == "" {
		req.Model = c.model
	}
	req.Stream = true

	reqBody, err := json.Marshal(req)
	if err != nil {
		logger.Error("序列化请求体失败", logger.F("err", err))
		return err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseUrl+"/generate", bytes.NewReader(reqBody))
	if err != nil {
		logger.Error("创建请求失败", logger.F("err", err))
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if req.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.APIKey)
	} else if c.defaultAPIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.defaultAPIKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		logger.Error("发送请求失败", logger.F("err", err))
		return fmt.Errorf("%w: %v", constant.ErrUpstreamStream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		logger.Error("上游返回错误", logger.F("statusCode", resp.StatusCode), logger.F("response", string(body)))
		return fmt.Errorf("%w: %d, %s", constant.ErrUpstreamStream, resp.StatusCode, string(body))
	}

	framing := c.framing
	if framing == FramingAuto {
		if strings.HasPrefix(resp.Header.Get("Content-Type"), "text/event-stream") {
			framing = FramingSSE
		} else {
			framing = FramingNDJSON
		}
	}

	if framing == FramingSSE {
		err = ReadSSE(resp.Body, cb)
	} else {
		err = ReadNDJSON(resp.Body, cb)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

// ReadSSE 按空行切分事件，解析 data 字段
func ReadSSE(r io.Reader, cb func(Event) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxEventSize)
	// 自定义分割函数，按照SSE格式的空行进行分割
	scanner.Split(func(data []byte, atEOF bool) (advance int, token []byte, err error) {
		if atEOF && len(data) == 0 {
			return 0, nil, nil
		}
		if i := bytes.Index(data, []byte("\n\n")); i >= 0 {
			return i + 2, data[0:i], nil
		}
		if i := bytes.Index(data, []byte("\r\n\r\n")); i >= 0 {
			return i + 4, data[0:i], nil
		}
		if atEOF {
			return len(data), data, nil
		}
		return 0, nil, nil
	})

	for scanner.Scan() {
		block := scanner.Bytes()
		if len(block) == 0 {
			continue
		}
		// 一个事件里可能有多行 data，按规范用换行拼接
		var payload []byte
		for _, line := range bytes.Split(block, []byte("\n")) {
			line = bytes.TrimRight(line, "\r")
			if !bytes.HasPrefix(line, []byte("data:")) {
				continue
			}
			line = bytes.TrimPrefix(line[5:], []byte(" "))
			if payload != nil {
				payload = append(payload, '\n')
			}
			payload = append(payload, line...)
		}
		if payload == nil {
			continue
		}
		if string(payload) == "[DONE]" {
			return nil
		}
		ev, ok := decodeSSE(payload)
		if !ok {
			continue
		}
		if err := cb(ev); err != nil {
			logger.Error("处理流式响应失败", logger.F("err", err))
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		logger.Error("读取流式响应失败", logger.F("err", err))
		return fmt.Errorf("%w: %v", constant.ErrUpstreamStream, err)
	}
	return nil
}

var textPaths = []string{"delta", "text", "response", "choices.0.delta.content", "message.content"}

func decodeSSE(payload []byte) (Event, bool) {
	if !gjson.ValidBytes(payload) {
		// 纯文本 data 直接视为片段
		return Event{Type: EventStatusUpdate, Data: string(payload)}, true
	}
	j := gjson.ParseBytes(payload)
	if t := j.Get("type").String(); t != "" && t != EventStatusUpdate && j.Get("data").Exists() {
		return eventFrom(j), true
	}
	if j.Get("data").Type == gjson.String {
		return eventFrom(j), true
	}
	for _, p := range textPaths {
		if v := j.Get(p); v.Type == gjson.String {
			if v.String() == "" {
				return Event{}, false
			}
			return Event{Type: EventStatusUpdate, Data: v.String(), Author: j.Get("model").String()}, true
		}
	}
	return Event{}, false
}

// ReadNDJSON 每行一个 JSON 对象
func ReadNDJSON(r io.Reader, cb func(Event) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxEventSize)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if !gjson.ValidBytes(line) {
			logger.Warn("忽略无法解析的行", logger.F("line", string(line)))
			continue
		}
		j := gjson.ParseBytes(line)
		var ev Event
		switch {
		case j.Get("data").Exists():
			ev = eventFrom(j)
		case j.Get("response").Exists():
			// 兼容 ollama 风格的输出
			ev = Event{Type: EventStatusUpdate, Data: j.Get("response").String(), Author: j.Get("model").String()}
		default:
			continue
		}
		if ev.Data != "" {
			if err := cb(ev); err != nil {
				logger.Error("处理流式响应失败", logger.F("err", err))
				return err
			}
		}
		if j.Get("done").Bool() {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		logger.Error("读取流式响应失败", logger.F("err", err))
		return fmt.Errorf("%w: %v", constant.ErrUpstreamStream, err)
	}
	return nil
}

func eventFrom(j gjson.Result) Event {
	ev := Event{
		Type:   j.Get("type").String(),
		Data:   j.Get("data").String(),
		Author: j.Get("metadata.author").String(),
	}
	if ev.Type == "" {
		ev.Type = EventStatusUpdate
	}
	j.Get("metadata.references").ForEach(func(_, value gjson.Result) bool {
		ev.References = append(ev.References, value.String())
		return true
	})
	return ev
}
