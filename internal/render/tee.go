package render

import "errors"

// Tee returns a factory whose charts forward every call to one chart per
// factory. Spec and View come from the first chart.
func Tee(factories ...ChartFactory) ChartFactory {
	return teeFactory(factories)
}

type teeFactory []ChartFactory

func (t teeFactory) NewChart(spec ChartSpec) (Chart, error) {
	charts := make(teeChart, 0, len(t))
	for _, f := range t {
		c, err := f.NewChart(spec)
		if err != nil {
			return nil, err
		}
		charts = append(charts, c)
	}
	if len(charts) == 0 {
		return nil, errors.New("tee: no chart factories")
	}
	return charts, nil
}

type teeChart []Chart

func (t teeChart) SetData(labels []string, values []int64) {
	for _, c := range t {
		c.SetData(labels, values)
	}
}

func (t teeChart) Update() error {
	var errs []error
	for _, c := range t {
		if err := c.Update(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (t teeChart) Spec() ChartSpec { return t[0].Spec() }

func (t teeChart) View(width, height int) string {
	for _, c := range t {
		if v, ok := c.(Viewer); ok {
			return v.View(width, height)
		}
	}
	return ""
}
