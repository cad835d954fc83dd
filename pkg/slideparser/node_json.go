package slideparser

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// 节点序列化时带上 type 字段，反序列化时据此还原具体类型

func withType(kind NodeKind, body []byte, err error) ([]byte, error) {
	if err != nil {
		return nil, err
	}
	head := []byte(`{"type":"` + string(kind) + `"`)
	if len(body) <= 2 {
		return append(head, '}'), nil
	}
	head = append(head, ',')
	return append(head, body[1:]...), nil
}

func (n *Heading) MarshalJSON() ([]byte, error) {
	type alias Heading
	b, err := json.Marshal((*alias)(n))
	return withType(KindHeading, b, err)
}

func (n *Paragraph) MarshalJSON() ([]byte, error) {
	type alias Paragraph
	b, err := json.Marshal((*alias)(n))
	return withType(KindParagraph, b, err)
}

func (n *Image) MarshalJSON() ([]byte, error) {
	type alias Image
	b, err := json.Marshal((*alias)(n))
	return withType(KindImage, b, err)
}

func (n *Columns) MarshalJSON() ([]byte, error) {
	type alias Columns
	b, err := json.Marshal((*alias)(n))
	return withType(KindColumns, b, err)
}

func (n *Bullets) MarshalJSON() ([]byte, error) {
	type alias Bullets
	b, err := json.Marshal((*alias)(n))
	return withType(KindBullets, b, err)
}

func (n *IconList) MarshalJSON() ([]byte, error) {
	type alias IconList
	b, err := json.Marshal((*alias)(n))
	return withType(KindIconList, b, err)
}

func (n *Cycle) MarshalJSON() ([]byte, error) {
	type alias Cycle
	b, err := json.Marshal((*alias)(n))
	return withType(KindCycle, b, err)
}

func (n *Staircase) MarshalJSON() ([]byte, error) {
	type alias Staircase
	b, err := json.Marshal((*alias)(n))
	return withType(KindStaircase, b, err)
}

func (n *Chart) MarshalJSON() ([]byte, error) {
	type alias Chart
	b, err := json.Marshal((*alias)(n))
	return withType(KindChart, b, err)
}

func (n *VisualizationList) MarshalJSON() ([]byte, error) {
	type alias VisualizationList
	b, err := json.Marshal((*alias)(n))
	return withType(KindVisualization, b, err)
}

// DecodeNode 根据 type 字段还原节点
func DecodeNode(raw []byte) (Node, error) {
	kind := NodeKind(gjson.GetBytes(raw, "type").String())
	var n Node
	switch kind {
	case KindHeading:
		n = &Heading{}
	case KindParagraph:
		n = &Paragraph{}
	case KindImage:
		n = &Image{}
	case KindColumns:
		n = &Columns{}
	case KindBullets:
		n = &Bullets{}
	case KindIconList:
		n = &IconList{}
	case KindCycle:
		n = &Cycle{}
	case KindStaircase:
		n = &Staircase{}
	case KindChart:
		n = &Chart{}
	case KindVisualization:
		n = &VisualizationList{}
	default:
		return nil, fmt.Errorf("unknown node type %q", kind)
	}
	if err := json.Unmarshal(raw, n); err != nil {
		return nil, fmt.Errorf("decode %s node: %w", kind, err)
	}
	return n, nil
}

// DecodeNodes 批量还原节点
func DecodeNodes(raws []json.RawMessage) ([]Node, error) {
	if raws == nil {
		return nil, nil
	}
	nodes := make([]Node, 0, len(raws))
	for _, raw := range raws {
		n, err := DecodeNode(raw)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func (n *Paragraph) UnmarshalJSON(data []byte) error {
	var shadow struct {
		Runs     []TextRun         `json:"runs"`
		Children []json.RawMessage `json:"children"`
	}
	if err := json.Unmarshal(data, &shadow); err != nil {
		return err
	}
	children, err := DecodeNodes(shadow.Children)
	if err != nil {
		return err
	}
	n.Runs, n.Children = shadow.Runs, children
	return nil
}

func (it *Item) UnmarshalJSON(data []byte) error {
	var shadow struct {
		Children []json.RawMessage `json:"children"`
	}
	if err := json.Unmarshal(data, &shadow); err != nil {
		return err
	}
	children, err := DecodeNodes(shadow.Children)
	if err != nil {
		return err
	}
	it.Children = children
	return nil
}

func (it *IconItem) UnmarshalJSON(data []byte) error {
	var shadow struct {
		Icon     *Icon             `json:"icon"`
		Children []json.RawMessage `json:"children"`
	}
	if err := json.Unmarshal(data, &shadow); err != nil {
		return err
	}
	children, err := DecodeNodes(shadow.Children)
	if err != nil {
		return err
	}
	it.Icon, it.Children = shadow.Icon, children
	return nil
}

func (s *Slide) UnmarshalJSON(data []byte) error {
	type alias Slide
	var shadow struct {
		alias
		Content []json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(data, &shadow); err != nil {
		return err
	}
	content, err := DecodeNodes(shadow.Content)
	if err != nil {
		return err
	}
	*s = Slide(shadow.alias)
	s.Content = content
	return nil
}
