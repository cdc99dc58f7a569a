// Package deck holds the static slide deck that summarises the dashboard's
// design and writes it as a PowerPoint file.
package deck

// Paragraph is one line of slide text. Level 0 is the lead line, level 1 a
// bullet under it.
type Paragraph struct {
	Text  string
	Level int
}

type Slide struct {
	Title string
	Body  []Paragraph
}

// Deck is a title slide followed by content slides.
type Deck struct {
	Title    string
	Subtitle []string
	Slides   []Slide
}

// Len counts the title slide too.
func (d Deck) Len() int {
	return 1 + len(d.Slides)
}

func slide(title, lead string, bullets ...string) Slide {
	s := Slide{Title: title, Body: []Paragraph{{Text: lead}}}
	for _, b := range bullets {
		s.Body = append(s.Body, Paragraph{Text: "• " + b, Level: 1})
	}
	return s
}

// Summary is the dashboard design deck. It does not depend on any data.
func Summary() Deck {
	return Deck{
		Title: "Business Dashboard Design",
		Subtitle: []string{
			"Interactive Dashboard for Business Stakeholders",
			"",
			"Built with Go, templ and Datastar",
			"Dataset: Superstore Sales Data",
		},
		Slides: []Slide{
			slide("Objective",
				"Design an interactive dashboard for business stakeholders to inform data-driven decisions.",
				"Learn how to create dashboards that inform business decisions",
				"Serve the dashboard from a single Go binary instead of a BI tool",
			),
			slide("Dataset Overview",
				"Superstore Sales Dataset - Sample sales and financial data",
				"Contains sales transactions with customer, product, and location details",
				"Includes metrics: Sales, Profit, Quantity, Discount",
				"Time period: Multiple years of sales data",
				"Loaded once from CSV, S3 or SQLite and cached on disk",
			),
			slide("Key Performance Indicators (KPIs)",
				"Core metrics chosen for business analysis:",
				"Sales: Total revenue generated",
				"Profit: Net profit after costs and discounts",
				"Growth: Average profit margin percentage",
			),
			slide("Dashboard Features",
				"Interactive elements for enhanced user experience:",
				"Slicers/Filters: Region, Category, Year range selection",
				"Time-series Analysis: Sales trends over time with line charts",
				"Cards for Totals: KPI summary cards with key metrics",
				"Consistent Color Theme: Blue-based professional color scheme",
				"Navigation Menu: Sidebar with filter controls",
			),
			slide("Visualizations Included",
				"Charts and graphs for data analysis:",
				"Bar Charts: Sales by Category, Profit by Sub-Category",
				"Pie Chart: Sales distribution by Region",
				"Line Chart: Sales trend over time",
				"Horizontal Bar Chart: Top 5 Products by Sales",
			),
			slide("Technical Implementation",
				"Built as a Go web service:",
				"Server-rendered templ components with Datastar server-sent events",
				"Charts drawn in the browser with Chart.js",
				"Filter and aggregation pipeline recomputed on every filter change",
				"JSON API, Prometheus metrics and structured logging",
			),
			slide("Learning Outcomes",
				"Skills developed through this project:",
				"Dashboard design principles for business intelligence",
				"Data visualization techniques using modern tools",
				"Interactive filtering and user experience design",
				"KPI selection and business metric analysis",
				"Time-series analysis and trend identification",
			),
			slide("Conclusion",
				"The interactive dashboard provides business stakeholders with:",
				"Comprehensive view of sales performance",
				"Real-time filtering capabilities for detailed analysis",
				"Visual insights to support data-driven decisions",
				"Professional presentation with consistent theming",
			),
		},
	}
}
