package testutil

import (
	"fmt"
	"html"
	"strings"
)

// Item describes one submission of a generated listing page. An empty Source
// renders a self post, an empty Submitter a job posting.
type Item struct {
	Title     string
	Source    string
	Submitter string
}

// ListingHTML renders a Hacker News style listing with ranks counting up from firstRank.
func ListingHTML(firstRank int, items ...Item) string {
	var b strings.Builder
	b.WriteString(`<html lang="en" op="news"><head><title>Hacker News</title></head><body><center>`)
	b.WriteString(`<table id="hnmain" border="0" cellpadding="0" cellspacing="0" width="85%" bgcolor="#f6f6ef">`)
	b.WriteString("\n<tr><td bgcolor=\"#ff6600\"><b class=\"hnname\"><a href=\"news\">Hacker News</a></b></td></tr>\n")
	b.WriteString("<tr id=\"bigbox\"><td><table border=\"0\" cellpadding=\"0\" cellspacing=\"0\">\n")
	for i, item := range items {
		writeItem(&b, 40000000+i, firstRank+i, item)
	}
	b.WriteString(`<tr class="morespace" style="height:10px"></tr><tr><td colspan="2"></td><td class="title"><a href="?p=2" class="morelink" rel="next">More</a></td></tr>`)
	b.WriteString("\n</table></td></tr></table></center></body></html>\n")
	return b.String()
}

// NewsHTML renders a full page of count generic submissions.
func NewsHTML(firstRank, count int) string {
	items := make([]Item, count)
	for i := range items {
		items[i] = Item{
			Title:     fmt.Sprintf("Story number %d", firstRank+i),
			Source:    fmt.Sprintf("site%d.example.com", i),
			Submitter: fmt.Sprintf("user%d", i),
		}
	}
	return ListingHTML(firstRank, items...)
}

func writeItem(b *strings.Builder, id, rank int, item Item) {
	href := fmt.Sprintf("item?id=%d", id)
	if item.Source != "" {
		href = "https://" + item.Source + "/post"
	}

	fmt.Fprintf(b, `<tr class="athing submission" id="%d">`+"\n", id)
	fmt.Fprintf(b, `      <td align="right" valign="top" class="title"><span class="rank">%d.</span></td>`, rank)
	fmt.Fprintf(b, `<td valign="top" class="votelinks"><center><a id="up_%d" href="vote?id=%d&amp;how=up&amp;goto=news"><div class="votearrow" title="upvote"></div></a></center></td>`, id, id)
	fmt.Fprintf(b, `<td class="title"><span class="titleline"><a href="%s">%s</a>`, href, html.EscapeString(item.Title))
	if item.Source != "" {
		fmt.Fprintf(b, `<span class="sitebit comhead"> (<a href="from?site=%s"><span class="sitestr">%s</span></a>)</span>`, item.Source, item.Source)
	}
	b.WriteString("</span></td></tr>\n")

	b.WriteString(`<tr><td colspan="2"></td><td class="subtext"><span class="subline">`)
	fmt.Fprintf(b, `<span class="score" id="score_%d">%d points</span>`, id, 100-rank%100)
	if item.Submitter != "" {
		fmt.Fprintf(b, ` by <a href="user?id=%s" class="hnuser">%s</a>`, item.Submitter, item.Submitter)
	}
	fmt.Fprintf(b, ` <span class="age"><a href="item?id=%d">3 hours ago</a></span> | <a href="item?id=%d">42&nbsp;comments</a></span></td></tr>`+"\n", id, id)
	b.WriteString(`<tr class="spacer" style="height:5px"></tr>` + "\n")
}
