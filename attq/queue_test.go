/*
 * MIT License
 *
 * Copyright (c) 2022 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package attq_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/qengine/attq"
)

var _ = Describe("Queue", func() {
	var (
		q    attq.Queue[string]
		base time.Time
	)

	BeforeEach(func() {
		q = attq.New[string]()
		base = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	})

	Context("Add and NextTime", func() {
		It("reports no next time on an empty queue", func() {
			_, ok := q.NextTime()
			Expect(ok).To(BeFalse())
		})

		It("reports the earliest pending wakeup", func() {
			q.Add("c1", base.Add(5*time.Second))
			q.Add("c2", base.Add(1*time.Second))
			q.Add("c3", base.Add(10*time.Second))

			t, ok := q.NextTime()
			Expect(ok).To(BeTrue())
			Expect(t).To(Equal(base.Add(1 * time.Second)))
			Expect(q.Len()).To(Equal(3))
		})

		It("replaces the pending wakeup when the same key is re-added", func() {
			q.Add("c1", base.Add(5*time.Second))
			q.Add("c1", base.Add(1*time.Second))

			Expect(q.Len()).To(Equal(1))
			t, ok := q.NextTime()
			Expect(ok).To(BeTrue())
			Expect(t).To(Equal(base.Add(1 * time.Second)))
		})
	})

	Context("Pop", func() {
		It("returns only entries due at or before now, in time order", func() {
			q.Add("late", base.Add(10*time.Second))
			q.Add("first", base.Add(1*time.Second))
			q.Add("second", base.Add(2*time.Second))

			popped := q.Pop(base.Add(2 * time.Second))
			Expect(popped).To(Equal([]string{"first", "second"}))
			Expect(q.Len()).To(Equal(1))

			t, ok := q.NextTime()
			Expect(ok).To(BeTrue())
			Expect(t).To(Equal(base.Add(10 * time.Second)))
		})

		It("returns nothing when no entry is due", func() {
			q.Add("c1", base.Add(5*time.Second))
			Expect(q.Pop(base)).To(BeEmpty())
			Expect(q.Len()).To(Equal(1))
		})

		It("breaks ties between equal wakeups by registration order", func() {
			q.Add("first", base)
			q.Add("second", base)
			q.Add("third", base)

			Expect(q.Pop(base)).To(Equal([]string{"first", "second", "third"}))
		})
	})

	Context("Remove", func() {
		It("cancels a pending wakeup", func() {
			q.Add("c1", base.Add(time.Second))
			Expect(q.Remove("c1")).To(BeTrue())
			Expect(q.Len()).To(Equal(0))
		})

		It("reports false for a key that is not queued", func() {
			Expect(q.Remove("missing")).To(BeFalse())
		})
	})

	Context("CountBefore", func() {
		It("counts entries due at or before the given time", func() {
			q.Add("c1", base.Add(1*time.Second))
			q.Add("c2", base.Add(2*time.Second))
			q.Add("c3", base.Add(3*time.Second))

			Expect(q.CountBefore(base.Add(2 * time.Second))).To(Equal(2))
			Expect(q.CountBefore(base)).To(Equal(0))
			Expect(q.CountBefore(base.Add(3 * time.Second))).To(Equal(3))
		})
	})
})
