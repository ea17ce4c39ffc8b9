package source

// task is one URL waiting to be fetched, tagged with its link distance from
// the crawl root.
type task struct {
	URL   string
	Depth int
}

// frontier is the BFS queue of the crawler. It tracks every URL it has ever
// accepted so pages are fetched at most once per crawl.
type frontier struct {
	tasks []task
	seen  map[string]bool
}

func newFrontier() *frontier {
	return &frontier{
		seen: make(map[string]bool),
	}
}

// Push enqueues a URL unless it was already seen this crawl.
func (f *frontier) Push(url string, depth int) {
	if f.seen[url] {
		return
	}
	f.seen[url] = true
	f.tasks = append(f.tasks, task{URL: url, Depth: depth})
}

// Pop dequeues the next URL in breadth-first order.
func (f *frontier) Pop() (task, bool) {
	if len(f.tasks) == 0 {
		return task{}, false
	}
	t := f.tasks[0]
	f.tasks = f.tasks[1:]
	return t, true
}

func (f *frontier) Len() int {
	return len(f.tasks)
}
