package export

const xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"

const nsMain = `xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" ` +
	`xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" ` +
	`xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"`

const emptyTree = `<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr>` +
	`<p:grpSpPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="0" cy="0"/><a:chOff x="0" y="0"/><a:chExt cx="0" cy="0"/></a:xfrm></p:grpSpPr>`

var contentTypesTmpl = mustTemplate("content-types", xmlHeader+
	`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">`+
	`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>`+
	`<Default Extension="xml" ContentType="application/xml"/>`+
	`<Default Extension="png" ContentType="image/png"/>`+
	`<Override PartName="/ppt/presentation.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"/>`+
	`<Override PartName="/ppt/slideMasters/slideMaster1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideMaster+xml"/>`+
	`<Override PartName="/ppt/slideLayouts/slideLayout1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideLayout+xml"/>`+
	`<Override PartName="/ppt/theme/theme1.xml" ContentType="application/vnd.openxmlformats-officedocument.theme+xml"/>`+
	`<Override PartName="/ppt/presProps.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.presProps+xml"/>`+
	`<Override PartName="/ppt/viewProps.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.viewProps+xml"/>`+
	`<Override PartName="/ppt/tableStyles.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.tableStyles+xml"/>`+
	`<Override PartName="/docProps/core.xml" ContentType="application/vnd.openxmlformats-package.core-properties+xml"/>`+
	`<Override PartName="/docProps/app.xml" ContentType="application/vnd.openxmlformats-officedocument.extended-properties+xml"/>`+
	`{{range $i, $s := .Slides}}<Override PartName="/ppt/slides/slide{{add $i 1}}.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slide+xml"/>{{end}}`+
	`</Types>`)

var rootRelsTmpl = mustTemplate("root-rels", xmlHeader+
	`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`+
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="ppt/presentation.xml"/>`+
	`<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties" Target="docProps/core.xml"/>`+
	`<Relationship Id="rId3" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/extended-properties" Target="docProps/app.xml"/>`+
	`</Relationships>`)

var coreTmpl = mustTemplate("core", xmlHeader+
	`<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" `+
	`xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/" `+
	`xmlns:dcmitype="http://purl.org/dc/dcmitype/" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">`+
	`<dc:title>{{esc .Title}}</dc:title><dc:creator>chartdeck</dc:creator>`+
	`<dcterms:created xsi:type="dcterms:W3CDTF">{{.Created}}</dcterms:created>`+
	`<dcterms:modified xsi:type="dcterms:W3CDTF">{{.Created}}</dcterms:modified>`+
	`</cp:coreProperties>`)

var appTmpl = mustTemplate("app", xmlHeader+
	`<Properties xmlns="http://schemas.openxmlformats.org/officeDocument/2006/extended-properties" `+
	`xmlns:vt="http://schemas.openxmlformats.org/officeDocument/2006/docPropsVTypes">`+
	`<Application>chartdeck</Application><Slides>{{len .Slides}}</Slides>`+
	`</Properties>`)

var presentationTmpl = mustTemplate("presentation", xmlHeader+
	`<p:presentation `+nsMain+` saveSubsetFonts="1">`+
	`<p:sldMasterIdLst><p:sldMasterId id="2147483648" r:id="rId1"/></p:sldMasterIdLst>`+
	`<p:sldIdLst>{{range $i, $s := .Slides}}<p:sldId id="{{add $i 256}}" r:id="rId{{add $i 6}}"/>{{end}}</p:sldIdLst>`+
	`<p:sldSz cx="{{.SlideCX}}" cy="{{.SlideCY}}"/>`+
	`<p:notesSz cx="6858000" cy="9144000"/>`+
	`</p:presentation>`)

var presentationRelsTmpl = mustTemplate("presentation-rels", xmlHeader+
	`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`+
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideMaster" Target="slideMasters/slideMaster1.xml"/>`+
	`<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/theme" Target="theme/theme1.xml"/>`+
	`<Relationship Id="rId3" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/presProps" Target="presProps.xml"/>`+
	`<Relationship Id="rId4" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/viewProps" Target="viewProps.xml"/>`+
	`<Relationship Id="rId5" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/tableStyles" Target="tableStyles.xml"/>`+
	`{{range $i, $s := .Slides}}<Relationship Id="rId{{add $i 6}}" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide" Target="slides/slide{{add $i 1}}.xml"/>{{end}}`+
	`</Relationships>`)

var presPropsTmpl = mustTemplate("pres-props", xmlHeader+`<p:presentationPr `+nsMain+`/>`)

var viewPropsTmpl = mustTemplate("view-props", xmlHeader+
	`<p:viewPr `+nsMain+`><p:normalViewPr/><p:gridSpacing cx="76200" cy="76200"/></p:viewPr>`)

var tableStylesTmpl = mustTemplate("table-styles", xmlHeader+
	`<a:tblStyleLst xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" def="{5C22544A-7EE6-4342-B048-85BDC9FD1C3A}"/>`)

var masterTmpl = mustTemplate("master", xmlHeader+
	`<p:sldMaster `+nsMain+`>`+
	`<p:cSld><p:bg><p:bgRef idx="1001"><a:schemeClr val="bg1"/></p:bgRef></p:bg><p:spTree>`+emptyTree+`</p:spTree></p:cSld>`+
	`<p:clrMap bg1="lt1" tx1="dk1" bg2="lt2" tx2="dk2" accent1="accent1" accent2="accent2" accent3="accent3" `+
	`accent4="accent4" accent5="accent5" accent6="accent6" hlink="hlink" folHlink="folHlink"/>`+
	`<p:sldLayoutIdLst><p:sldLayoutId id="2147483649" r:id="rId1"/></p:sldLayoutIdLst>`+
	`<p:txStyles><p:titleStyle/><p:bodyStyle/><p:otherStyle/></p:txStyles>`+
	`</p:sldMaster>`)

var masterRelsTmpl = mustTemplate("master-rels", xmlHeader+
	`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`+
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideLayout" Target="../slideLayouts/slideLayout1.xml"/>`+
	`<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/theme" Target="../theme/theme1.xml"/>`+
	`</Relationships>`)

var layoutTmpl = mustTemplate("layout", xmlHeader+
	`<p:sldLayout `+nsMain+` type="blank" preserve="1">`+
	`<p:cSld name="Blank"><p:spTree>`+emptyTree+`</p:spTree></p:cSld>`+
	`<p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr>`+
	`</p:sldLayout>`)

var layoutRelsTmpl = mustTemplate("layout-rels", xmlHeader+
	`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`+
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideMaster" Target="../slideMasters/slideMaster1.xml"/>`+
	`</Relationships>`)

var slideRelsTmpl = mustTemplate("slide-rels", xmlHeader+
	`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`+
	`{{range .Rels}}<Relationship Id="{{.ID}}" Type="{{.Type}}" Target="{{esc .Target}}"{{if .External}} TargetMode="External"{{end}}/>{{end}}`+
	`</Relationships>`)

var slideTmpl = mustTemplate("slide", xmlHeader+
	`<p:sld `+nsMain+`><p:cSld><p:spTree>`+emptyTree+
	`{{range .Texts}}`+
	`<p:sp><p:nvSpPr><p:cNvPr id="{{.ID}}" name="{{.Name}}"/><p:cNvSpPr txBox="1"/><p:nvPr/></p:nvSpPr>`+
	`<p:spPr><a:xfrm><a:off x="{{.X}}" y="{{.Y}}"/><a:ext cx="{{.CX}}" cy="{{.CY}}"/></a:xfrm>`+
	`<a:prstGeom prst="rect"><a:avLst/></a:prstGeom><a:noFill/></p:spPr>`+
	`<p:txBody><a:bodyPr wrap="square" rtlCol="0"><a:normAutofit/></a:bodyPr><a:lstStyle/>`+
	`<a:p><a:r><a:rPr lang="en-US" sz="{{.Size}}"{{if .Bold}} b="1"{{end}} dirty="0"/><a:t>{{esc .Text}}</a:t></a:r></a:p>`+
	`</p:txBody></p:sp>`+
	`{{end}}`+
	`{{with .Table}}{{$t := .}}`+
	`<p:graphicFrame><p:nvGraphicFramePr><p:cNvPr id="{{.ID}}" name="Table"/>`+
	`<p:cNvGraphicFramePr><a:graphicFrameLocks noGrp="1"/></p:cNvGraphicFramePr><p:nvPr/></p:nvGraphicFramePr>`+
	`<p:xfrm><a:off x="{{.X}}" y="{{.Y}}"/><a:ext cx="{{.CX}}" cy="{{.CY}}"/></p:xfrm>`+
	`<a:graphic><a:graphicData uri="http://schemas.openxmlformats.org/drawingml/2006/table">`+
	`<a:tbl><a:tblPr firstRow="1" bandRow="1"/>`+
	`<a:tblGrid>{{range .Header}}<a:gridCol w="{{$t.ColW}}"/>{{end}}</a:tblGrid>`+
	`<a:tr h="{{.RowH}}">{{range .Header}}`+
	`<a:tc><a:txBody><a:bodyPr/><a:lstStyle/><a:p><a:r><a:rPr lang="en-US" sz="{{$t.FontSize}}" b="1" dirty="0"/><a:t>{{esc .}}</a:t></a:r></a:p></a:txBody>`+
	tableCellBorder+`</a:tc>{{end}}</a:tr>`+
	`{{range .Rows}}<a:tr h="{{$t.RowH}}">{{range .}}`+
	`<a:tc><a:txBody><a:bodyPr/><a:lstStyle/><a:p><a:r><a:rPr lang="en-US" sz="{{$t.FontSize}}" dirty="0">`+
	`{{if .RID}}<a:hlinkClick r:id="{{.RID}}"/>{{end}}</a:rPr><a:t>{{esc .Text}}</a:t></a:r></a:p></a:txBody>`+
	tableCellBorder+`</a:tc>{{end}}</a:tr>{{end}}`+
	`</a:tbl></a:graphicData></a:graphic></p:graphicFrame>`+
	`{{end}}`+
	`{{with .Picture}}`+
	`<p:pic><p:nvPicPr><p:cNvPr id="{{.ID}}" name="Chart" descr="{{esc .Descr}}"/>`+
	`<p:cNvPicPr><a:picLocks noChangeAspect="1"/></p:cNvPicPr><p:nvPr/></p:nvPicPr>`+
	`<p:blipFill><a:blip r:embed="{{.RID}}"/><a:stretch><a:fillRect/></a:stretch></p:blipFill>`+
	`<p:spPr><a:xfrm><a:off x="{{.X}}" y="{{.Y}}"/><a:ext cx="{{.CX}}" cy="{{.CY}}"/></a:xfrm>`+
	`<a:prstGeom prst="rect"><a:avLst/></a:prstGeom></p:spPr></p:pic>`+
	`{{end}}`+
	`</p:spTree></p:cSld><p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sld>`)

const tableCellBorder = `<a:tcPr>` +
	`<a:lnL w="12700"><a:solidFill><a:srgbClr val="999999"/></a:solidFill></a:lnL>` +
	`<a:lnR w="12700"><a:solidFill><a:srgbClr val="999999"/></a:solidFill></a:lnR>` +
	`<a:lnT w="12700"><a:solidFill><a:srgbClr val="999999"/></a:solidFill></a:lnT>` +
	`<a:lnB w="12700"><a:solidFill><a:srgbClr val="999999"/></a:solidFill></a:lnB>` +
	`</a:tcPr>`

var themeTmpl = mustTemplate("theme", xmlHeader+
	`<a:theme xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" name="chartdeck">`+
	`<a:themeElements>`+
	`<a:clrScheme name="chartdeck">`+
	`<a:dk1><a:srgbClr val="000000"/></a:dk1><a:lt1><a:srgbClr val="FFFFFF"/></a:lt1>`+
	`<a:dk2><a:srgbClr val="1F2937"/></a:dk2><a:lt2><a:srgbClr val="F3F4F6"/></a:lt2>`+
	`<a:accent1><a:srgbClr val="0088FE"/></a:accent1><a:accent2><a:srgbClr val="00C49F"/></a:accent2>`+
	`<a:accent3><a:srgbClr val="FFBB28"/></a:accent3><a:accent4><a:srgbClr val="FF8042"/></a:accent4>`+
	`<a:accent5><a:srgbClr val="8884D8"/></a:accent5><a:accent6><a:srgbClr val="82CA9D"/></a:accent6>`+
	`<a:hlink><a:srgbClr val="0563C1"/></a:hlink><a:folHlink><a:srgbClr val="954F72"/></a:folHlink>`+
	`</a:clrScheme>`+
	`<a:fontScheme name="chartdeck">`+
	`<a:majorFont><a:latin typeface="Calibri"/><a:ea typeface=""/><a:cs typeface=""/></a:majorFont>`+
	`<a:minorFont><a:latin typeface="Calibri"/><a:ea typeface=""/><a:cs typeface=""/></a:minorFont>`+
	`</a:fontScheme>`+
	`<a:fmtScheme name="chartdeck">`+
	`<a:fillStyleLst>`+
	`<a:solidFill><a:schemeClr val="phClr"/></a:solidFill>`+
	`<a:solidFill><a:schemeClr val="phClr"/></a:solidFill>`+
	`<a:solidFill><a:schemeClr val="phClr"/></a:solidFill>`+
	`</a:fillStyleLst>`+
	`<a:lnStyleLst>`+
	`<a:ln w="6350"><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln>`+
	`<a:ln w="12700"><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln>`+
	`<a:ln w="19050"><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln>`+
	`</a:lnStyleLst>`+
	`<a:effectStyleLst>`+
	`<a:effectStyle><a:effectLst/></a:effectStyle>`+
	`<a:effectStyle><a:effectLst/></a:effectStyle>`+
	`<a:effectStyle><a:effectLst/></a:effectStyle>`+
	`</a:effectStyleLst>`+
	`<a:bgFillStyleLst>`+
	`<a:solidFill><a:schemeClr val="phClr"/></a:solidFill>`+
	`<a:solidFill><a:schemeClr val="phClr"/></a:solidFill>`+
	`<a:solidFill><a:schemeClr val="phClr"/></a:solidFill>`+
	`</a:bgFillStyleLst>`+
	`</a:fmtScheme>`+
	`</a:themeElements>`+
	`</a:theme>`)
