package shop

// PipelineService runs the fulfilment stages in order.
type PipelineService struct {
	done []int
}

// Stage01 runs fulfilment stage 1.
func (p *PipelineService) Stage01() {
	p.done = append(p.done, 1)
	p.Stage02()
}

// Stage02 runs fulfilment stage 2.
func (p *PipelineService) Stage02() {
	p.done = append(p.done, 2)
	p.Stage03()
}

// Stage03 runs fulfilment stage 3.
func (p *PipelineService) Stage03() {
	p.done = append(p.done, 3)
	p.Stage04()
}

// Stage04 runs fulfilment stage 4.
func (p *PipelineService) Stage04() {
	p.done = append(p.done, 4)
	p.Stage05()
}

// Stage05 runs fulfilment stage 5.
func (p *PipelineService) Stage05() {
	p.done = append(p.done, 5)
	p.Stage06()
}

// Stage06 runs fulfilment stage 6.
func (p *PipelineService) Stage06() {
	p.done = append(p.done, 6)
	p.Stage07()
}

// Stage07 runs fulfilment stage 7.
func (p *PipelineService) Stage07() {
	p.done = append(p.done, 7)
	p.Stage08()
}

// Stage08 runs fulfilment stage 8.
func (p *PipelineService) Stage08() {
	p.done = append(p.done, 8)
	p.Stage09()
}

// Stage09 runs fulfilment stage 9.
func (p *PipelineService) Stage09() {
	p.done = append(p.done, 9)
	p.Stage10()
}

// Stage10 runs fulfilment stage 10.
func (p *PipelineService) Stage10() {
	p.done = append(p.done, 10)
	p.Stage11()
}

// Stage11 runs fulfilment stage 11.
func (p *PipelineService) Stage11() {
	p.done = append(p.done, 11)
	p.Stage12()
}

// Stage12 runs fulfilment stage 12.
func (p *PipelineService) Stage12() {
	p.done = append(p.done, 12)
	p.Stage13()
}

// Stage13 runs fulfilment stage 13.
func (p *PipelineService) Stage13() {
	p.done = append(p.done, 13)
	p.Stage14()
}

// Stage14 runs fulfilment stage 14.
func (p *PipelineService) Stage14() {
	p.done = append(p.done, 14)
	p.Stage15()
}

// Stage15 runs fulfilment stage 15.
func (p *PipelineService) Stage15() {
	p.done = append(p.done, 15)
}
