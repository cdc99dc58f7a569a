package deck

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"text/template"
	"time"
)

// Every zip entry carries this time so the output is byte-for-byte stable.
var entryTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

const (
	slideWidth  = 9144000
	slideHeight = 6858000
)

type part struct {
	name string
	body string
}

// WritePPTX writes d as an Office Open XML presentation. The same deck always
// produces the same bytes.
func WritePPTX(w io.Writer, d Deck) error {
	parts, err := buildParts(d)
	if err != nil {
		return err
	}

	zw := zip.NewWriter(w)
	for _, p := range parts {
		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:     p.name,
			Method:   zip.Deflate,
			Modified: entryTime,
		})
		if err != nil {
			return fmt.Errorf("create %s: %w", p.name, err)
		}
		if _, err := io.WriteString(fw, p.body); err != nil {
			return fmt.Errorf("write %s: %w", p.name, err)
		}
	}
	return zw.Close()
}

func buildParts(d Deck) ([]part, error) {
	slides := make([]slideData, 0, d.Len())
	title := slideData{Number: 1, Title: d.Title, TitleY: 2130425, BodyY: 3886200, Centered: true}
	for _, line := range d.Subtitle {
		title.Body = append(title.Body, Paragraph{Text: line})
	}
	slides = append(slides, title)
	for i, s := range d.Slides {
		slides = append(slides, slideData{Number: i + 2, Title: s.Title, Body: s.Body, TitleY: 274638, BodyY: 1600200})
	}

	data := struct {
		Title  string
		Slides []slideData
		Width  int
		Height int
	}{d.Title, slides, slideWidth, slideHeight}

	parts := []part{}
	add := func(name string, tmpl *template.Template, v any) error {
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, v); err != nil {
			return fmt.Errorf("render %s: %w", name, err)
		}
		parts = append(parts, part{name: name, body: buf.String()})
		return nil
	}

	if err := add("[Content_Types].xml", contentTypesTmpl, data); err != nil {
		return nil, err
	}
	parts = append(parts,
		part{"_rels/.rels", rootRels},
	)
	if err := add("docProps/core.xml", coreTmpl, data); err != nil {
		return nil, err
	}
	if err := add("docProps/app.xml", appTmpl, data); err != nil {
		return nil, err
	}
	if err := add("ppt/presentation.xml", presentationTmpl, data); err != nil {
		return nil, err
	}
	if err := add("ppt/_rels/presentation.xml.rels", presentationRelsTmpl, data); err != nil {
		return nil, err
	}
	parts = append(parts,
		part{"ppt/slideMasters/slideMaster1.xml", slideMaster},
		part{"ppt/slideMasters/_rels/slideMaster1.xml.rels", slideMasterRels},
		part{"ppt/slideLayouts/slideLayout1.xml", slideLayout},
		part{"ppt/slideLayouts/_rels/slideLayout1.xml.rels", slideLayoutRels},
		part{"ppt/theme/theme1.xml", theme},
	)
	for _, s := range slides {
		if err := add(fmt.Sprintf("ppt/slides/slide%d.xml", s.Number), slideTmpl, s); err != nil {
			return nil, err
		}
		parts = append(parts, part{fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", s.Number), slideRels})
	}
	return parts, nil
}

type slideData struct {
	Number   int
	Title    string
	Body     []Paragraph
	TitleY   int
	BodyY    int
	Centered bool
}

func escapeXML(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

var funcs = template.FuncMap{
	"x":   escapeXML,
	"add": func(a, b int) int { return a + b },
}

func mustParse(name, text string) *template.Template {
	return template.Must(template.New(name).Funcs(funcs).Parse(text))
}

const (
	nsA = `xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main"`
	nsR = `xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"`
	nsP = `xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"`

	xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"

	relLayout = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideLayout"
	relMaster = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideMaster"
	relTheme  = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/theme"
	relSlide  = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide"

	emptyGroup = `<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr>` +
		`<p:grpSpPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="0" cy="0"/><a:chOff x="0" y="0"/><a:chExt cx="0" cy="0"/></a:xfrm></p:grpSpPr>`
)

var contentTypesTmpl = mustParse("content-types", xmlHeader+
	`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">`+
	`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>`+
	`<Default Extension="xml" ContentType="application/xml"/>`+
	`<Override PartName="/ppt/presentation.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"/>`+
	`<Override PartName="/ppt/slideMasters/slideMaster1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideMaster+xml"/>`+
	`<Override PartName="/ppt/slideLayouts/slideLayout1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideLayout+xml"/>`+
	`<Override PartName="/ppt/theme/theme1.xml" ContentType="application/vnd.openxmlformats-officedocument.theme+xml"/>`+
	`{{range .Slides}}<Override PartName="/ppt/slides/slide{{.Number}}.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slide+xml"/>{{end}}`+
	`<Override PartName="/docProps/core.xml" ContentType="application/vnd.openxmlformats-package.core-properties+xml"/>`+
	`<Override PartName="/docProps/app.xml" ContentType="application/vnd.openxmlformats-officedocument.extended-properties+xml"/>`+
	`</Types>`)

const rootRels = xmlHeader +
	`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="ppt/presentation.xml"/>` +
	`<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties" Target="docProps/core.xml"/>` +
	`<Relationship Id="rId3" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/extended-properties" Target="docProps/app.xml"/>` +
	`</Relationships>`

var coreTmpl = mustParse("core", xmlHeader+
	`<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" `+
	`xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/" `+
	`xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">`+
	`<dc:title>{{x .Title}}</dc:title><dc:creator>sales-dashboard</dc:creator>`+
	`</cp:coreProperties>`)

var appTmpl = mustParse("app", xmlHeader+
	`<Properties xmlns="http://schemas.openxmlformats.org/officeDocument/2006/extended-properties">`+
	`<Application>sales-dashboard</Application><Slides>{{len .Slides}}</Slides>`+
	`</Properties>`)

var presentationTmpl = mustParse("presentation", xmlHeader+
	`<p:presentation `+nsA+` `+nsR+` `+nsP+`>`+
	`<p:sldMasterIdLst><p:sldMasterId id="2147483648" r:id="rId1"/></p:sldMasterIdLst>`+
	`<p:sldIdLst>{{range .Slides}}<p:sldId id="{{add .Number 255}}" r:id="rId{{add .Number 2}}"/>{{end}}</p:sldIdLst>`+
	`<p:sldSz cx="{{.Width}}" cy="{{.Height}}" type="screen4x3"/>`+
	`<p:notesSz cx="{{.Height}}" cy="{{.Width}}"/>`+
	`</p:presentation>`)

var presentationRelsTmpl = mustParse("presentation-rels", xmlHeader+
	`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`+
	`<Relationship Id="rId1" Type="`+relMaster+`" Target="slideMasters/slideMaster1.xml"/>`+
	`<Relationship Id="rId2" Type="`+relTheme+`" Target="theme/theme1.xml"/>`+
	`{{range .Slides}}<Relationship Id="rId{{add .Number 2}}" Type="`+relSlide+`" Target="slides/slide{{.Number}}.xml"/>{{end}}`+
	`</Relationships>`)

var slideTmpl = mustParse("slide", xmlHeader+
	`<p:sld `+nsA+` `+nsR+` `+nsP+`><p:cSld><p:spTree>`+emptyGroup+
	`<p:sp><p:nvSpPr><p:cNvPr id="2" name="Title"/><p:cNvSpPr txBox="1"/><p:nvPr/></p:nvSpPr>`+
	`<p:spPr><a:xfrm><a:off x="457200" y="{{.TitleY}}"/><a:ext cx="8229600" cy="1143000"/></a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom></p:spPr>`+
	`<p:txBody><a:bodyPr anchor="ctr"/><a:lstStyle/><a:p>{{if .Centered}}<a:pPr algn="ctr"/>{{end}}`+
	`<a:r><a:rPr lang="en-US" sz="{{if .Centered}}4000{{else}}3200{{end}}" b="1"><a:solidFill><a:srgbClr val="1F77B4"/></a:solidFill></a:rPr><a:t>{{x .Title}}</a:t></a:r></a:p></p:txBody></p:sp>`+
	`<p:sp><p:nvSpPr><p:cNvPr id="3" name="Body"/><p:cNvSpPr txBox="1"/><p:nvPr/></p:nvSpPr>`+
	`<p:spPr><a:xfrm><a:off x="457200" y="{{.BodyY}}"/><a:ext cx="8229600" cy="4525963"/></a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom></p:spPr>`+
	`<p:txBody><a:bodyPr wrap="square"><a:normAutofit/></a:bodyPr><a:lstStyle/>`+
	`{{$centered := .Centered}}{{range .Body}}<a:p>`+
	`{{if $centered}}<a:pPr algn="ctr"/>{{else if .Level}}<a:pPr marL="457200" lvl="{{.Level}}"/>{{end}}`+
	`{{if .Text}}<a:r><a:rPr lang="en-US" sz="{{if .Level}}2000{{else}}2400{{end}}"/><a:t>{{x .Text}}</a:t></a:r>{{end}}</a:p>{{else}}<a:p/>{{end}}`+
	`</p:txBody></p:sp>`+
	`</p:spTree></p:cSld><p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sld>`)

const slideRels = xmlHeader +
	`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="` + relLayout + `" Target="../slideLayouts/slideLayout1.xml"/>` +
	`</Relationships>`

const slideMaster = xmlHeader +
	`<p:sldMaster ` + nsA + ` ` + nsR + ` ` + nsP + `>` +
	`<p:cSld><p:bg><p:bgRef idx="1001"><a:schemeClr val="bg1"/></p:bgRef></p:bg><p:spTree>` + emptyGroup + `</p:spTree></p:cSld>` +
	`<p:clrMap bg1="lt1" tx1="dk1" bg2="lt2" tx2="dk2" accent1="accent1" accent2="accent2" accent3="accent3" ` +
	`accent4="accent4" accent5="accent5" accent6="accent6" hlink="hlink" folHlink="folHlink"/>` +
	`<p:sldLayoutIdLst><p:sldLayoutId id="2147483649" r:id="rId1"/></p:sldLayoutIdLst>` +
	`</p:sldMaster>`

const slideMasterRels = xmlHeader +
	`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="` + relLayout + `" Target="../slideLayouts/slideLayout1.xml"/>` +
	`<Relationship Id="rId2" Type="` + relTheme + `" Target="../theme/theme1.xml"/>` +
	`</Relationships>`

const slideLayout = xmlHeader +
	`<p:sldLayout ` + nsA + ` ` + nsR + ` ` + nsP + ` type="blank" preserve="1">` +
	`<p:cSld name="Blank"><p:spTree>` + emptyGroup + `</p:spTree></p:cSld>` +
	`<p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sldLayout>`

const slideLayoutRels = xmlHeader +
	`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="` + relMaster + `" Target="../slideMasters/slideMaster1.xml"/>` +
	`</Relationships>`

const solidFill = `<a:solidFill><a:schemeClr val="phClr"/></a:solidFill>`

const theme = xmlHeader +
	`<a:theme ` + nsA + ` name="Dashboard">` +
	`<a:themeElements>` +
	`<a:clrScheme name="Dashboard">` +
	`<a:dk1><a:srgbClr val="000000"/></a:dk1><a:lt1><a:srgbClr val="FFFFFF"/></a:lt1>` +
	`<a:dk2><a:srgbClr val="1B2631"/></a:dk2><a:lt2><a:srgbClr val="F0F8FF"/></a:lt2>` +
	`<a:accent1><a:srgbClr val="1F77B4"/></a:accent1><a:accent2><a:srgbClr val="FF7F0E"/></a:accent2>` +
	`<a:accent3><a:srgbClr val="2CA02C"/></a:accent3><a:accent4><a:srgbClr val="D62728"/></a:accent4>` +
	`<a:accent5><a:srgbClr val="9467BD"/></a:accent5><a:accent6><a:srgbClr val="8C564B"/></a:accent6>` +
	`<a:hlink><a:srgbClr val="1F77B4"/></a:hlink><a:folHlink><a:srgbClr val="9467BD"/></a:folHlink>` +
	`</a:clrScheme>` +
	`<a:fontScheme name="Dashboard">` +
	`<a:majorFont><a:latin typeface="Calibri"/><a:ea typeface=""/><a:cs typeface=""/></a:majorFont>` +
	`<a:minorFont><a:latin typeface="Calibri"/><a:ea typeface=""/><a:cs typeface=""/></a:minorFont>` +
	`</a:fontScheme>` +
	`<a:fmtScheme name="Dashboard">` +
	`<a:fillStyleLst>` + solidFill + solidFill + solidFill + `</a:fillStyleLst>` +
	`<a:lnStyleLst>` +
	`<a:ln w="9525">` + solidFill + `</a:ln><a:ln w="25400">` + solidFill + `</a:ln><a:ln w="38100">` + solidFill + `</a:ln>` +
	`</a:lnStyleLst>` +
	`<a:effectStyleLst><a:effectStyle><a:effectLst/></a:effectStyle><a:effectStyle><a:effectLst/></a:effectStyle><a:effectStyle><a:effectLst/></a:effectStyle></a:effectStyleLst>` +
	`<a:bgFillStyleLst>` + solidFill + solidFill + solidFill + `</a:bgFillStyleLst>` +
	`</a:fmtScheme>` +
	`</a:themeElements>` +
	`</a:theme>`
