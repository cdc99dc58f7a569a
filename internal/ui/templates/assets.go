package templates

//go:generate go run github.com/a-h/templ/cmd/templ@v0.3.943 generate

import (
	"encoding/json"
	"fmt"

	"sales-dashboard/internal/models"
)

const (
	Title  = "Business Performance Dashboard"
	Footer = "Dashboard created for business stakeholders to inform data-driven decisions."

	// KPIsID is the element the SSE handler replaces on every recompute.
	KPIsID = "kpis"
	// FilterErrorID holds the message for a selection the server rejected.
	FilterErrorID = "filter-error"

	datastarURL = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0-RC.5/bundles/datastar.js"
	chartJSURL  = "https://cdn.jsdelivr.net/npm/chart.js@4.4.1/dist/chart.umd.min.js"
)

// pageSignals seeds the client store the page boots with.
func pageSignals(d models.Dashboard) (string, error) {
	raw, err := json.Marshal(NewSignals(d))
	if err != nil {
		return "", fmt.Errorf("encode signals: %w", err)
	}
	return string(raw), nil
}

const pageCSS = `
body{margin:0;display:flex;font-family:system-ui,sans-serif;color:#1b2631}
.sidebar{width:260px;padding:1.5rem;background:#f4f8fb;min-height:100vh;box-sizing:border-box}
.sidebar-header{font-size:1.5rem;font-weight:bold;color:#1f77b4;margin-bottom:1rem}
.sidebar label{display:block;margin-top:1rem;font-weight:600}
.sidebar select,.sidebar input{width:100%;margin-top:.25rem}
.years{display:flex;gap:.5rem;align-items:center}
.sidebar button{margin-top:1.5rem;width:100%}
.filter-error{color:#d62728;min-height:1em}
.deck-link{display:block;margin-top:1rem;color:#1f77b4}
main{flex:1;padding:1.5rem 2rem}
.main-header{font-size:2.5rem;font-weight:bold;color:#1f77b4;text-align:center;margin-bottom:2rem}
.kpis{display:grid;grid-template-columns:repeat(3,1fr);gap:1rem}
.metric-card{background:#f0f8ff;padding:1rem;border-radius:10px;border-left:5px solid #1f77b4}
.empty-state,.row-count{grid-column:1/-1;margin:0;color:#566573}
.grid{display:grid;grid-template-columns:1fr 1fr;gap:1.5rem}
.chart{margin-top:1.5rem}
`

const chartsJS = `
(function(){
  const palette = ['#1f77b4','#ff7f0e','#2ca02c','#d62728','#9467bd','#8c564b'];
  const charts = {};
  function draw(id, type, series, opts) {
    const el = document.getElementById(id);
    if (!el || !series) return;
    const data = {labels: series.labels, datasets: [{data: series.values, backgroundColor: type === 'line' ? palette[0] : palette, borderColor: palette[0]}]};
    if (charts[id]) { charts[id].data = data; charts[id].update(); return; }
    charts[id] = new Chart(el, {type: type, data: data, options: Object.assign({plugins: {legend: {display: type === 'pie'}}}, opts || {})});
  }
  window.renderCharts = function(c) {
    if (!c || typeof Chart === 'undefined') return;
    draw('chart-category', 'bar', c.category);
    draw('chart-region', 'pie', c.region);
    draw('chart-monthly', 'line', c.monthly);
    draw('chart-top-products', 'bar', c.topProducts, {indexAxis: 'y'});
    draw('chart-sub-category', 'bar', c.subCategory);
  };
})();
`
