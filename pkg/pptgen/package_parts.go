package pptgen

import (
	"archive/zip"
	"fmt"
	"strings"
	"time"
)

const relTypeBase = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/"

// contentTypesXML 内容类型清单，withDocProps 为 true 时登记文档属性
func contentTypesXML(slideCount int, withDocProps bool) string {
	var b strings.Builder
	b.WriteString(xmlHeader)
	b.WriteString(`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
    <Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
    <Default Extension="xml" ContentType="application/xml"/>
    <Default Extension="png" ContentType="image/png"/>
    <Default Extension="jpeg" ContentType="image/jpeg"/>
    <Override PartName="/ppt/presentation.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"/>
    <Override PartName="/ppt/slideMasters/slideMaster1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideMaster+xml"/>
    <Override PartName="/ppt/slideLayouts/slideLayout1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideLayout+xml"/>
    <Override PartName="/ppt/theme/theme1.xml" ContentType="application/vnd.openxmlformats-officedocument.theme+xml"/>`)
	if withDocProps {
		b.WriteString(`
    <Override PartName="/docProps/core.xml" ContentType="application/vnd.openxmlformats-package.core-properties+xml"/>
    <Override PartName="/docProps/app.xml" ContentType="application/vnd.openxmlformats-officedocument.extended-properties+xml"/>`)
	}

	// 为每个幻灯片添加内容类型
	for i := 1; i <= slideCount; i++ {
		fmt.Fprintf(&b, `
    <Override PartName="/ppt/slides/slide%d.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slide+xml"/>`, i)
	}
	b.WriteString(`
</Types>`)
	return b.String()
}

// presentationXML 每个幻灯片 ID 从 256 开始递增，关系 ID 从 rId2 开始递增
func presentationXML(slideCount int) string {
	var b strings.Builder
	b.WriteString(xmlHeader)
	b.WriteString(`<p:presentation ` + nsDecl + `>
    <p:sldMasterIdLst>
        <p:sldMasterId id="2147483648" r:id="rId1"/>
    </p:sldMasterIdLst>
    <p:sldIdLst>`)
	for i := 0; i < slideCount; i++ {
		fmt.Fprintf(&b, `
        <p:sldId id="%d" r:id="rId%d"/>`, 256+i, 2+i)
	}
	fmt.Fprintf(&b, `
    </p:sldIdLst>
    <p:sldSz cx="%d" cy="%d"/>
    <p:notesSz cx="6858000" cy="9144000"/>
</p:presentation>`, slideWidth, slideHeight)
	return b.String()
}

// presentationRelsXML 主题关系排在所有幻灯片之后
func presentationRelsXML(slideCount int) string {
	var b strings.Builder
	b.WriteString(xmlHeader)
	b.WriteString(`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
    <Relationship Id="rId1" Type="` + relTypeBase + `slideMaster" Target="slideMasters/slideMaster1.xml"/>`)
	for i := 0; i < slideCount; i++ {
		fmt.Fprintf(&b, `
    <Relationship Id="rId%d" Type="%sslide" Target="slides/slide%d.xml"/>`, 2+i, relTypeBase, i+1)
	}
	fmt.Fprintf(&b, `
    <Relationship Id="rId%d" Type="%stheme" Target="theme/theme1.xml"/>
</Relationships>`, slideCount+2, relTypeBase)
	return b.String()
}

func (g *PPTGenerator) addContentTypes(zipWriter *zip.Writer, slides []SlideContent) error {
	return writePart(zipWriter, "[Content_Types].xml", contentTypesXML(len(slides), true))
}

func (g *PPTGenerator) addRels(zipWriter *zip.Writer) error {
	return writePart(zipWriter, "_rels/.rels", xmlHeader+`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
    <Relationship Id="rId1" Type="`+relTypeBase+`officeDocument" Target="ppt/presentation.xml"/>
    <Relationship Id="rId2" Type="http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties" Target="docProps/core.xml"/>
    <Relationship Id="rId3" Type="`+relTypeBase+`extended-properties" Target="docProps/app.xml"/>
</Relationships>`)
}

func (g *PPTGenerator) addPresentation(zipWriter *zip.Writer, slides []SlideContent) error {
	if err := writePart(zipWriter, "ppt/presentation.xml", presentationXML(len(slides))); err != nil {
		return err
	}
	return writePart(zipWriter, "ppt/_rels/presentation.xml.rels", presentationRelsXML(len(slides)))
}

// addMiscFiles 母版、版式、主题和文档属性
func (g *PPTGenerator) addMiscFiles(zipWriter *zip.Writer, slides []SlideContent, config TemplateConfig) error {
	parts := []struct {
		name    string
		content string
	}{
		{"ppt/slideMasters/slideMaster1.xml", slideMasterXML},
		{"ppt/slideMasters/_rels/slideMaster1.xml.rels", slideMasterRelsXML},
		{"ppt/slideLayouts/slideLayout1.xml", slideLayoutXML},
		{"ppt/slideLayouts/_rels/slideLayout1.xml.rels", slideLayoutRelsXML},
		{"ppt/theme/theme1.xml", themeXML(config)},
		{"docProps/core.xml", corePropsXML(config.Title, time.Now())},
		{"docProps/app.xml", appPropsXML(len(slides))},
	}
	for _, p := range parts {
		if err := writePart(zipWriter, p.name, p.content); err != nil {
			return err
		}
	}
	return nil
}

const emptySpTree = `<p:spTree><p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/></p:spTree>`

var slideMasterXML = xmlHeader + `<p:sldMaster ` + nsDecl + `>
    <p:cSld><p:bg><p:bgRef idx="1001"><a:schemeClr val="bg1"/></p:bgRef></p:bg>` + emptySpTree + `</p:cSld>
    <p:clrMap bg1="lt1" tx1="dk1" bg2="lt2" tx2="dk2" accent1="accent1" accent2="accent2" accent3="accent3" accent4="accent4" accent5="accent5" accent6="accent6" hlink="hlink" folHlink="folHlink"/>
    <p:sldLayoutIdLst><p:sldLayoutId id="2147483649" r:id="rId1"/></p:sldLayoutIdLst>
</p:sldMaster>`

var slideMasterRelsXML = xmlHeader + `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
    <Relationship Id="rId1" Type="` + relTypeBase + `slideLayout" Target="../slideLayouts/slideLayout1.xml"/>
    <Relationship Id="rId2" Type="` + relTypeBase + `theme" Target="../theme/theme1.xml"/>
</Relationships>`

var slideLayoutXML = xmlHeader + `<p:sldLayout ` + nsDecl + ` type="blank" preserve="1">
    <p:cSld name="Blank">` + emptySpTree + `</p:cSld>
    <p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr>
</p:sldLayout>`

var slideLayoutRelsXML = xmlHeader + `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
    <Relationship Id="rId1" Type="` + relTypeBase + `slideMaster" Target="../slideMasters/slideMaster1.xml"/>
</Relationships>`

// themeXML 主题色作为 accent1，字体同时用于标题和正文
func themeXML(config TemplateConfig) string {
	font := escapeAttr(config.FontFamily)
	solid := func(clr string) string {
		return `<a:solidFill><a:` + clr + `/></a:solidFill>`
	}
	line := func(w int) string {
		return fmt.Sprintf(`<a:ln w="%d"><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln>`, w)
	}
	phClr := solid(`schemeClr val="phClr"`)

	var b strings.Builder
	b.WriteString(xmlHeader)
	b.WriteString(`<a:theme xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" name="` + escapeAttr(string(config.Type)) + `"><a:themeElements>`)
	fmt.Fprintf(&b, `<a:clrScheme name="slide_stream"><a:dk1><a:srgbClr val="000000"/></a:dk1><a:lt1><a:srgbClr val="FFFFFF"/></a:lt1><a:dk2><a:srgbClr val="44546A"/></a:dk2><a:lt2><a:srgbClr val="E7E6E6"/></a:lt2><a:accent1><a:srgbClr val="%s"/></a:accent1><a:accent2><a:srgbClr val="ED7D31"/></a:accent2><a:accent3><a:srgbClr val="A5A5A5"/></a:accent3><a:accent4><a:srgbClr val="FFC000"/></a:accent4><a:accent5><a:srgbClr val="5B9BD5"/></a:accent5><a:accent6><a:srgbClr val="70AD47"/></a:accent6><a:hlink><a:srgbClr val="0563C1"/></a:hlink><a:folHlink><a:srgbClr val="954F72"/></a:folHlink></a:clrScheme>`, config.ThemeColor)
	fmt.Fprintf(&b, `<a:fontScheme name="slide_stream"><a:majorFont><a:latin typeface="%s"/><a:ea typeface="%s"/><a:cs typeface=""/></a:majorFont><a:minorFont><a:latin typeface="%s"/><a:ea typeface="%s"/><a:cs typeface=""/></a:minorFont></a:fontScheme>`, font, font, font, font)
	b.WriteString(`<a:fmtScheme name="slide_stream">`)
	b.WriteString(`<a:fillStyleLst>` + phClr + phClr + phClr + `</a:fillStyleLst>`)
	b.WriteString(`<a:lnStyleLst>` + line(6350) + line(12700) + line(19050) + `</a:lnStyleLst>`)
	b.WriteString(`<a:effectStyleLst>` + strings.Repeat(`<a:effectStyle><a:effectLst/></a:effectStyle>`, 3) + `</a:effectStyleLst>`)
	b.WriteString(`<a:bgFillStyleLst>` + phClr + phClr + phClr + `</a:bgFillStyleLst>`)
	b.WriteString(`</a:fmtScheme></a:themeElements><a:objectDefaults/><a:extraClrSchemeLst/></a:theme>`)
	return b.String()
}

func corePropsXML(title string, created time.Time) string {
	ts := created.UTC().Format(time.RFC3339)
	return xmlHeader + `<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">
    <dc:title>` + escapeText(title) + `</dc:title>
    <dc:creator>slide_stream</dc:creator>
    <dcterms:created xsi:type="dcterms:W3CDTF">` + ts + `</dcterms:created>
    <dcterms:modified xsi:type="dcterms:W3CDTF">` + ts + `</dcterms:modified>
</cp:coreProperties>`
}

func appPropsXML(slideCount int) string {
	return fmt.Sprintf(xmlHeader+`<Properties xmlns="http://schemas.openxmlformats.org/officeDocument/2006/extended-properties">
    <Application>slide_stream</Application>
    <Slides>%d</Slides>
</Properties>`, slideCount)
}
