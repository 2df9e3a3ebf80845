package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"scoby_collective/internal/domain"
)

type client struct {
	baseURL string
	http    *http.Client
}

type embeddedOrchestrator struct {
	cmd *exec.Cmd
}

func main() {
	addr := flag.String("addr", "http://localhost:8092", "orchestrator base URL")
	interval := flag.Duration("interval", 2*time.Second, "refresh interval")
	embedded := flag.Bool("embedded", true, "start orchestrator in the same monitor process lifecycle")
	orchestratorBinary := flag.String("orchestrator-bin", "", "path to orchestrator binary (optional in embedded mode)")
	dbPath := flag.String("db", "data/embedded.db", "sqlite journal path for embedded orchestrator")
	flag.Parse()

	c := &client{
		baseURL: strings.TrimRight(*addr, "/"),
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	var embeddedProc *embeddedOrchestrator
	var err error
	if *embedded {
		embeddedProc, err = startEmbeddedOrchestrator(*addr, *orchestratorBinary, *dbPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start embedded orchestrator: %v\n", err)
			os.Exit(1)
		}
		defer embeddedProc.Stop()
	}

	if err := waitHealth(c, 30*time.Second); err != nil {
		fmt.Fprintf(os.Stderr, "orchestrator health check failed: %v\n", err)
		os.Exit(1)
	}

	app := tview.NewApplication()

	workersTable := tview.NewTable().
		SetBorders(false).
		SetSelectable(true, false)
	workersTable.SetTitle("Workers (F5 refresh, F10 quit)").SetBorder(true)

	tasksTable := tview.NewTable().
		SetBorders(false)
	tasksTable.SetTitle("Tasks").SetBorder(true)

	metricsView := tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(false)
	metricsView.SetTitle("Collective").SetBorder(true)

	eventsView := tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(false)
	eventsView.SetTitle("Events").SetBorder(true)

	statusView := tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(false)
	statusView.SetBorder(true).SetTitle("Status")
	statusView.SetText(fmt.Sprintf("Connected to %s | embedded=%t", c.baseURL, *embedded))

	left := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(workersTable, 0, 2, false).
		AddItem(tasksTable, 0, 2, false)
	right := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(metricsView, 14, 0, false).
		AddItem(eventsView, 0, 1, false)

	mainLayout := tview.NewFlex().
		AddItem(left, 0, 2, false).
		AddItem(right, 0, 1, false)

	root := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(mainLayout, 0, 12, false).
		AddItem(statusView, 3, 0, false)

	refresh := func() {
		metrics, metricsErr := c.getMetrics()
		workers, workersErr := c.listWorkers()
		tasks, tasksErr := c.listTasks()
		events, eventsErr := c.listEvents(30)

		app.QueueUpdateDraw(func() {
			if metricsErr != nil {
				metricsView.SetText(fmt.Sprintf("error: %v", metricsErr))
			} else {
				metricsView.SetText(renderMetrics(metrics))
			}
			if workersErr != nil {
				workersTable.Clear()
				workersTable.SetCell(0, 0, tview.NewTableCell(fmt.Sprintf("load error: %v", workersErr)))
			} else {
				renderWorkersTable(workersTable, workers)
			}
			if tasksErr != nil {
				tasksTable.Clear()
				tasksTable.SetCell(0, 0, tview.NewTableCell(fmt.Sprintf("load error: %v", tasksErr)))
			} else {
				renderTasksTable(tasksTable, tasks)
			}
			if eventsErr != nil {
				eventsView.SetText(fmt.Sprintf("error: %v", eventsErr))
			} else {
				eventsView.SetText(renderEvents(events))
			}
		})
	}

	app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyF10:
			app.Stop()
			return nil
		case tcell.KeyF5:
			go refresh()
			return nil
		}
		return event
	})

	go func() {
		refresh()
		ticker := time.NewTicker(*interval)
		defer ticker.Stop()
		for range ticker.C {
			refresh()
		}
	}()

	if err := app.SetRoot(root, true).EnableMouse(true).SetFocus(workersTable).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "monitor failed: %v\n", err)
		os.Exit(1)
	}
}

func waitHealth(c *client, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		req, err := http.NewRequest(http.MethodGet, c.baseURL+"/healthz", nil)
		if err == nil {
			resp, err := c.http.Do(req)
			if err == nil {
				_ = resp.Body.Close()
				if resp.StatusCode < 300 {
					return nil
				}
			}
		}
		time.Sleep(400 * time.Millisecond)
	}
	return fmt.Errorf("timeout waiting for /healthz")
}

func startEmbeddedOrchestrator(addr, orchestratorBinary, dbPath string) (*embeddedOrchestrator, error) {
	parsed, err := url.Parse(addr)
	if err != nil {
		return nil, fmt.Errorf("parse addr: %w", err)
	}
	port := parsed.Port()
	if port == "" {
		return nil, fmt.Errorf("addr must include explicit port, got %q", addr)
	}
	addrArg := ":" + port

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	args := []string{"--addr", addrArg, "--db", dbPath, "--demo"}
	var cmd *exec.Cmd
	if strings.TrimSpace(orchestratorBinary) != "" {
		cmd = exec.Command(orchestratorBinary, args...)
	} else {
		self, err := os.Executable()
		if err == nil {
			sibling := filepath.Join(filepath.Dir(self), "orchestrator")
			if fileExists(sibling) {
				cmd = exec.Command(sibling, args...)
			}
		}
		if cmd == nil {
			cmd = exec.Command("go", append([]string{"run", "./cmd/orchestrator"}, args...)...)
			cwd, _ := os.Getwd()
			cmd.Dir = cwd
		}
	}

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start orchestrator process: %w", err)
	}
	return &embeddedOrchestrator{cmd: cmd}, nil
}

func (e *embeddedOrchestrator) Stop() {
	if e == nil || e.cmd == nil || e.cmd.Process == nil {
		return
	}
	_ = e.cmd.Process.Kill()
	_, _ = e.cmd.Process.Wait()
}

func renderMetrics(m domain.Metrics) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[yellow]workers[-]        %d\n", m.WorkerCount)
	fmt.Fprintf(&b, "[yellow]pending[-]        %d\n", m.PendingTasks)
	fmt.Fprintf(&b, "[yellow]assigned[-]       %d\n", m.AssignedTasks)
	fmt.Fprintf(&b, "[yellow]completed[-]      %d\n", m.CompletedTasks)
	fmt.Fprintf(&b, "[yellow]failed[-]         %d\n", m.FailedTasks)
	fmt.Fprintf(&b, "[yellow]credits[-]        %.1f\n", m.TotalCredits)
	fmt.Fprintf(&b, "[yellow]consciousness[-]  %.3f\n", m.CollectiveConsciousness)
	fmt.Fprintf(&b, "[yellow]emergence[-]      %.3f\n", m.EmergenceFactor)
	fmt.Fprintf(&b, "[yellow]diversity[-]      %.3f\n", m.DiversityIndex)
	fmt.Fprintf(&b, "[yellow]quality[-]        %.6f\n", m.CollectiveQuality)
	for _, mode := range domain.Modes() {
		fmt.Fprintf(&b, "[yellow]%-14s[-] %d\n", mode, m.ModeCounts[mode])
	}
	return b.String()
}

func renderWorkersTable(table *tview.Table, workers []domain.Worker) {
	table.Clear()
	headers := []string{"Worker", "Role", "Mode", "Trust", "Credits", "Queue", "Avail"}
	for i, h := range headers {
		table.SetCell(0, i, tview.NewTableCell(h).SetSelectable(false).SetAttributes(tcell.AttrBold))
	}
	sort.Slice(workers, func(i, j int) bool { return workers[i].ID < workers[j].ID })
	for i, w := range workers {
		row := i + 1
		table.SetCell(row, 0, tview.NewTableCell(w.ID))
		table.SetCell(row, 1, tview.NewTableCell(string(w.Role)))
		table.SetCell(row, 2, tview.NewTableCell(string(w.Mode)))
		table.SetCell(row, 3, tview.NewTableCell(fmt.Sprintf("%.2f", w.TrustScore)))
		table.SetCell(row, 4, tview.NewTableCell(fmt.Sprintf("%.1f", w.CreditBalance)))
		table.SetCell(row, 5, tview.NewTableCell(fmt.Sprintf("%d", len(w.TaskQueue))))
		table.SetCell(row, 6, tview.NewTableCell(fmt.Sprintf("%.2f", w.Availability)))
	}
}

func renderTasksTable(table *tview.Table, tasks []domain.Task) {
	table.Clear()
	headers := []string{"Task", "Type", "Status", "Worker", "Cost", "Updated"}
	for i, h := range headers {
		table.SetCell(0, i, tview.NewTableCell(h).SetSelectable(false).SetAttributes(tcell.AttrBold))
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].UpdatedAt.After(tasks[j].UpdatedAt) })
	if len(tasks) > 50 {
		tasks = tasks[:50]
	}
	for i, t := range tasks {
		row := i + 1
		table.SetCell(row, 0, tview.NewTableCell(shortID(t.ID)))
		table.SetCell(row, 1, tview.NewTableCell(string(t.Type)))
		table.SetCell(row, 2, tview.NewTableCell(string(t.Status)))
		table.SetCell(row, 3, tview.NewTableCell(t.AssignedWorker))
		table.SetCell(row, 4, tview.NewTableCell(fmt.Sprintf("%.1f", t.Cost)))
		table.SetCell(row, 5, tview.NewTableCell(t.UpdatedAt.Format("15:04:05")))
	}
}

func renderEvents(events []domain.Event) string {
	var b strings.Builder
	for _, ev := range events {
		ref := ev.TaskID
		if ref == "" {
			ref = ev.WorkerID
		}
		fmt.Fprintf(&b, "[green]%s[-] %-16s %s %s\n", ev.CreatedAt.Format("15:04:05"), ev.Kind, shortID(ref), ev.Detail)
	}
	return b.String()
}

func shortID(id string) string {
	if len(id) <= 12 {
		return id
	}
	return id[:12]
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func (c *client) getMetrics() (domain.Metrics, error) {
	var m domain.Metrics
	err := c.getJSON("/api/metrics", &m)
	return m, err
}

func (c *client) listWorkers() ([]domain.Worker, error) {
	var workers []domain.Worker
	err := c.getJSON("/api/workers", &workers)
	return workers, err
}

func (c *client) listTasks() ([]domain.Task, error) {
	var tasks []domain.Task
	err := c.getJSON("/api/tasks", &tasks)
	return tasks, err
}

func (c *client) listEvents(limit int) ([]domain.Event, error) {
	var events []domain.Event
	err := c.getJSON(fmt.Sprintf("/api/events?limit=%d", limit), &events)
	return events, err
}

func (c *client) getJSON(path string, out any) error {
	resp, err := c.http.Get(c.baseURL + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("GET %s: status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
