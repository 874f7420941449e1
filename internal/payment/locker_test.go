package payment_test

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	paymentPkg "github.com/frahmantamala/iyzipay-checkout/internal/payment"
)

var _ = Describe("KeyedMutex", func() {
	var locker *paymentPkg.KeyedMutex

	BeforeEach(func() {
		locker = paymentPkg.NewKeyedMutex()
	})

	It("serialises holders of the same key", func() {
		var (
			wg      sync.WaitGroup
			inside  int32
			maxSeen int32
		)
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer GinkgoRecover()
				defer wg.Done()
				release, err := locker.Lock(context.Background(), "order-1")
				Expect(err).NotTo(HaveOccurred())
				n := atomic.AddInt32(&inside, 1)
				for {
					m := atomic.LoadInt32(&maxSeen)
					if n <= m || atomic.CompareAndSwapInt32(&maxSeen, m, n) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				atomic.AddInt32(&inside, -1)
				release()
			}()
		}
		wg.Wait()

		Expect(maxSeen).To(Equal(int32(1)))
	})

	It("does not block other keys", func() {
		release, err := locker.Lock(context.Background(), "order-1")
		Expect(err).NotTo(HaveOccurred())
		defer release()

		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()
		other, err := locker.Lock(ctx, "order-2")
		Expect(err).NotTo(HaveOccurred())
		other()
	})

	It("gives up when the context ends while waiting", func() {
		release, err := locker.Lock(context.Background(), "order-1")
		Expect(err).NotTo(HaveOccurred())

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		_, err = locker.Lock(ctx, "order-1")
		Expect(err).To(MatchError(context.DeadlineExceeded))

		release()
		again, err := locker.Lock(context.Background(), "order-1")
		Expect(err).NotTo(HaveOccurred())
		again()
	})

	It("tolerates a double release", func() {
		release, err := locker.Lock(context.Background(), "order-1")
		Expect(err).NotTo(HaveOccurred())
		release()
		release()

		again, err := locker.Lock(context.Background(), "order-1")
		Expect(err).NotTo(HaveOccurred())
		again()
	})
})
